package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planroomhq/planroom/internal/dms/apperr"
	"github.com/planroomhq/planroom/internal/dms/service"
	"github.com/planroomhq/planroom/internal/shared/storage"
)

// Handlers bundles the HTTP handlers.
type Handlers struct {
	Drawing     *DrawingHandler
	Transmittal *TransmittalHandler
	Directory   *DirectoryHandler
	Storage     *StorageHandler
}

// NewHandlers creates the handler bundle.
func NewHandlers(svc *service.Services, provider storage.Provider) *Handlers {
	return &Handlers{
		Drawing:     NewDrawingHandler(svc.Drawing, svc.CadSource),
		Transmittal: NewTransmittalHandler(svc.Transmittal),
		Directory:   NewDirectoryHandler(svc.Directory, svc.User),
		Storage:     NewStorageHandler(provider),
	}
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success writes a 200 envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created writes a 201 envelope.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// BadRequest writes a 400 envelope.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Code: 40000, Message: message})
}

// NotFound writes a 404 envelope.
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{Code: 40400, Message: message})
}

// InternalError writes a 500 envelope.
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{Code: 50000, Message: message})
}

// HandleError maps a domain error onto the right status code. Everything the
// domain classifies is recoverable; the caller fixes the input and retries.
func HandleError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, Response{Code: 40000, Message: err.Error()})
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, Response{Code: 40400, Message: err.Error()})
	case apperr.KindConflict:
		c.JSON(http.StatusConflict, Response{Code: 40900, Message: err.Error()})
	case apperr.KindState:
		c.JSON(http.StatusUnprocessableEntity, Response{Code: 42200, Message: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, Response{Code: 50000, Message: err.Error()})
	}
}

// GetUserID returns the acting user injected by the JWT middleware.
func GetUserID(c *gin.Context) string {
	return c.GetString("user_id")
}
