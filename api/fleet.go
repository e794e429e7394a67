package api

import (
	"net/http"

	"github.com/Domenick1991/aeroclub/internal/service/fleet"
	"github.com/gin-gonic/gin"
)

type FleetHandler struct {
	service fleet.FleetUseCase
}

func NewFleetHandler(service fleet.FleetUseCase) *FleetHandler {
	return &FleetHandler{service: service}
}

func (h *FleetHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/:id/availability", h.availability)
}

func (h *FleetHandler) list(c *gin.Context) {
	aircraft, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, aircraft)
}

func (h *FleetHandler) availability(c *gin.Context) {
	availability, err := h.service.IsBookable(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}
