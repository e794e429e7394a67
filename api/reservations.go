package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/aeroclub/internal/domain"
	"github.com/Domenick1991/aeroclub/internal/repository"
	"github.com/Domenick1991/aeroclub/internal/service/reservation"
	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	service reservation.ReservationUseCase
}

type createReservationRequest struct {
	ResourceID string `json:"resource_id"`
	// RequesterID defaults to the acting member.
	RequesterID string    `json:"requester_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsPriority  bool      `json:"is_priority"`
	Remarks     string    `json:"remarks"`
}

type updateReservationRequest struct {
	ResourceID *string    `json:"resource_id"`
	StartsAt   *time.Time `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
	IsPriority *bool      `json:"is_priority"`
	Remarks    *string    `json:"remarks"`
}

type reservationResponse struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	RequesterID string    `json:"requester_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	IsPriority  bool      `json:"is_priority"`
	Status      string    `json:"status"`
	Remarks     string    `json:"remarks,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type mutationResponse struct {
	Reservation reservationResponse   `json:"reservation"`
	Advisory    string                `json:"advisory,omitempty"`
	Demoted     []reservationResponse `json:"demoted,omitempty"`
}

func NewReservationHandler(service reservation.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.POST("/", h.create)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.cancel)
	router.POST("/:id/reevaluate", h.reevaluate)
}

func (h *ReservationHandler) create(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}
	if req.RequesterID == "" {
		req.RequesterID = actor
	}

	result, err := h.service.Create(c.Request.Context(), reservation.CreateInput{
		ResourceID:  req.ResourceID,
		RequesterID: req.RequesterID,
		ActorID:     actor,
		Interval:    domain.Interval{Start: req.StartsAt, End: req.EndsAt},
		IsPriority:  req.IsPriority,
		Remarks:     req.Remarks,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMutationResponse(result))
}

func (h *ReservationHandler) update(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "body", err.Error())
		return
	}

	result, err := h.service.Update(c.Request.Context(), c.Param("id"), actor, reservation.Patch{
		ResourceID: req.ResourceID,
		Start:      req.StartsAt,
		End:        req.EndsAt,
		IsPriority: req.IsPriority,
		Remarks:    req.Remarks,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMutationResponse(result))
}

func (h *ReservationHandler) cancel(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	result, err := h.service.Cancel(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMutationResponse(result))
}

func (h *ReservationHandler) reevaluate(c *gin.Context) {
	actor, ok := actorID(c)
	if !ok {
		return
	}
	result, err := h.service.Reevaluate(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMutationResponse(result))
}

func (h *ReservationHandler) get(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationResponse(*r))
}

func (h *ReservationHandler) list(c *gin.Context) {
	filter := repository.ListFilter{
		ResourceID:  c.Query("resource_id"),
		RequesterID: c.Query("requester_id"),
	}
	var ok bool
	if filter.From, ok = timeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = timeQuery(c, "to"); !ok {
		return
	}
	if raw := c.Query("include_cancelled"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "include_cancelled", "must be a boolean")
			return
		}
		filter.IncludeCancelled = include
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(c, "limit", "must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	reservations, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]reservationResponse, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, toReservationResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func timeQuery(c *gin.Context, param string) (*time.Time, bool) {
	raw := c.Query(param)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		badRequest(c, param, "must be an RFC3339 timestamp")
		return nil, false
	}
	return &t, true
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:          r.ID,
		ResourceID:  r.ResourceID,
		RequesterID: r.RequesterID,
		StartsAt:    r.Interval.Start,
		EndsAt:      r.Interval.End,
		IsPriority:  r.Priority.Elevated(),
		Status:      string(r.Status),
		Remarks:     r.Remarks,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toMutationResponse(result reservation.Result) mutationResponse {
	resp := mutationResponse{
		Reservation: toReservationResponse(result.Reservation),
		Advisory:    string(result.Advisory),
	}
	for _, d := range result.Demoted {
		resp.Demoted = append(resp.Demoted, toReservationResponse(d))
	}
	return resp
}
