package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/dms/service"
)

type TransmittalHandler struct {
	svc *service.TransmittalService
}

func NewTransmittalHandler(svc *service.TransmittalService) *TransmittalHandler {
	return &TransmittalHandler{svc: svc}
}

// List GET /projects/:projectId/transmittals
func (h *TransmittalHandler) List(c *gin.Context) {
	filters := repository.TransmittalFilters{
		Status:        c.Query("status"),
		RecipientText: c.Query("recipient"),
	}
	if from := c.Query("date_from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			BadRequest(c, "invalid date_from, want YYYY-MM-DD")
			return
		}
		filters.DateFrom = &t
	}
	if to := c.Query("date_to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			BadRequest(c, "invalid date_to, want YYYY-MM-DD")
			return
		}
		// Inclusive end of day.
		t = t.Add(24*time.Hour - time.Nanosecond)
		filters.DateTo = &t
	}

	transmittals, err := h.svc.List(c.Request.Context(), c.Param("projectId"), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"transmittals": transmittals, "total": len(transmittals)})
}

// Create POST /projects/:projectId/transmittals
func (h *TransmittalHandler) Create(c *gin.Context) {
	var req service.CreateTransmittalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	t, err := h.svc.Create(c.Request.Context(), c.Param("projectId"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, t)
}

// Get GET /transmittals/:id
func (h *TransmittalHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, t)
}

// Send POST /transmittals/:id/send
func (h *TransmittalHandler) Send(c *gin.Context) {
	t, err := h.svc.Send(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, t)
}

// Resend POST /transmittals/:id/resend
func (h *TransmittalHandler) Resend(c *gin.Context) {
	t, err := h.svc.Resend(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, t)
}

// Acknowledge POST /transmittals/:id/acknowledge
func (h *TransmittalHandler) Acknowledge(c *gin.Context) {
	t, err := h.svc.Acknowledge(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, t)
}

// Cancel POST /transmittals/:id/cancel
func (h *TransmittalHandler) Cancel(c *gin.Context) {
	t, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, t)
}
