package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/planroomhq/planroom/internal/dms/repository"
	"github.com/planroomhq/planroom/internal/dms/service"
)

type DrawingHandler struct {
	svc    *service.DrawingService
	cadSvc *service.CadSourceService
}

func NewDrawingHandler(svc *service.DrawingService, cadSvc *service.CadSourceService) *DrawingHandler {
	return &DrawingHandler{svc: svc, cadSvc: cadSvc}
}

// List GET /projects/:projectId/drawings
func (h *DrawingHandler) List(c *gin.Context) {
	filters := repository.ListFilters{
		SectionID:  c.Query("section_id"),
		FloorID:    c.Query("floor_id"),
		Status:     c.Query("status"),
		SearchText: c.Query("search"),
	}
	drawings, err := h.svc.List(c.Request.Context(), c.Param("projectId"), filters)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"drawings": drawings, "total": len(drawings)})
}

// Create POST /projects/:projectId/drawings
func (h *DrawingHandler) Create(c *gin.Context) {
	var req service.CreateDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	drawing, err := h.svc.Create(c.Request.Context(), c.Param("projectId"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, drawing)
}

// Get GET /drawings/:id
func (h *DrawingHandler) Get(c *gin.Context) {
	drawing, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, drawing)
}

// Update PUT /drawings/:id
func (h *DrawingHandler) Update(c *gin.Context) {
	var req service.UpdateDrawingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	drawing, err := h.svc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, drawing)
}

// Archive POST /drawings/:id/archive
func (h *DrawingHandler) Archive(c *gin.Context) {
	if err := h.svc.Archive(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "archived"})
}

// ListRevisions GET /drawings/:id/revisions
func (h *DrawingHandler) ListRevisions(c *gin.Context) {
	revisions, err := h.svc.ListRevisions(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"revisions": revisions, "total": len(revisions)})
}

// AddRevision POST /drawings/:id/revisions
func (h *DrawingHandler) AddRevision(c *gin.Context) {
	var req service.AddRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	rev, err := h.svc.AddRevision(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Created(c, rev)
}

// Download GET /drawings/:id/download
func (h *DrawingHandler) Download(c *gin.Context) {
	object, drawing, err := h.svc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	defer object.Close()

	c.Header("Content-Disposition", "attachment; filename=\""+drawing.FileName+"\"")
	if drawing.FileSize > 0 {
		c.Header("Content-Length", strconv.FormatInt(drawing.FileSize, 10))
	}
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	io.Copy(c.Writer, object)
}

// LinkCadSource PUT /drawings/:id/cad-source
func (h *DrawingHandler) LinkCadSource(c *gin.Context) {
	var req service.LinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}
	link, err := h.cadSvc.Link(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, link)
}

// UnlinkCadSource DELETE /drawings/:id/cad-source
func (h *DrawingHandler) UnlinkCadSource(c *gin.Context) {
	if err := h.cadSvc.Unlink(c.Request.Context(), c.Param("id")); err != nil {
		HandleError(c, err)
		return
	}
	Success(c, gin.H{"message": "unlinked"})
}

// CadFreshness GET /drawings/:id/cad-freshness
func (h *DrawingHandler) CadFreshness(c *gin.Context) {
	result, err := h.cadSvc.Freshness(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, result)
}
