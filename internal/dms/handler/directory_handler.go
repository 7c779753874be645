package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/planroomhq/planroom/internal/dms/entity"
	"github.com/planroomhq/planroom/internal/dms/service"
)

// DirectoryHandler serves the lookup data pickers key off: floors, sections,
// team members, and the transmittal purpose presets.
type DirectoryHandler struct {
	dirSvc  *service.DirectoryService
	userSvc *service.UserService
}

func NewDirectoryHandler(dirSvc *service.DirectoryService, userSvc *service.UserService) *DirectoryHandler {
	return &DirectoryHandler{dirSvc: dirSvc, userSvc: userSvc}
}

// ListFloors GET /projects/:projectId/floors
func (h *DirectoryHandler) ListFloors(c *gin.Context) {
	floors, err := h.dirSvc.ListFloors(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, floors)
}

// ListSections GET /projects/:projectId/sections
func (h *DirectoryHandler) ListSections(c *gin.Context) {
	sections, err := h.dirSvc.ListSections(c.Request.Context(), c.Param("projectId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, sections)
}

// ListUsers GET /users
func (h *DirectoryHandler) ListUsers(c *gin.Context) {
	if query := c.Query("q"); query != "" {
		users, err := h.userSvc.Search(c.Request.Context(), query)
		if err != nil {
			HandleError(c, err)
			return
		}
		Success(c, users)
		return
	}
	users, err := h.userSvc.ListAll(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, users)
}

// GetUser GET /users/:id
func (h *DirectoryHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleError(c, err)
		return
	}
	Success(c, user)
}

// ListPurposes GET /transmittal-purposes
func (h *DirectoryHandler) ListPurposes(c *gin.Context) {
	Success(c, entity.TransmittalPurposes)
}
