package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/planroomhq/planroom/internal/shared/storage"
)

// StorageHandler lets the client walk the file provider's folder tree to
// pick files to link. Thin pass-through; the provider does the paging.
type StorageHandler struct {
	provider storage.Provider
}

func NewStorageHandler(provider storage.Provider) *StorageHandler {
	return &StorageHandler{provider: provider}
}

// Browse GET /storage/browse?path=&cursor=
func (h *StorageHandler) Browse(c *gin.Context) {
	if h.provider == nil {
		InternalError(c, "file provider not configured")
		return
	}

	page, err := h.provider.ListFolder(c.Request.Context(), c.Query("path"), c.Query("cursor"))
	if err != nil {
		InternalError(c, "browse failed: "+err.Error())
		return
	}
	Success(c, page)
}

// FileMetadata GET /storage/metadata?path=
func (h *StorageHandler) FileMetadata(c *gin.Context) {
	if h.provider == nil {
		InternalError(c, "file provider not configured")
		return
	}
	path := c.Query("path")
	if path == "" {
		BadRequest(c, "path is required")
		return
	}

	meta, err := h.provider.GetFileMetadata(c.Request.Context(), path)
	if err != nil {
		InternalError(c, "metadata lookup failed: "+err.Error())
		return
	}
	Success(c, meta)
}
