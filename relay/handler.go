package relay

import (
	"net/http"

	"ecoshelf-extractor/internal/types"

	"github.com/gin-gonic/gin"
)

// TrimTitleRequest is the body of POST /api/trim-title
type TrimTitleRequest struct {
	Title string `json:"title"`
}

// TrimTitleResponse is the successful reply of POST /api/trim-title
type TrimTitleResponse struct {
	TrimmedTitle string `json:"trimmedTitle"`
}

// ErrorResponse is returned with 4xx/5xx statuses
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	apiKey  string
	trimmer types.TitleTrimmer
	logger  types.Logger
}

// NewHandler creates a new HTTP handler. apiKey is only checked for
// presence; trimmer performs the actual model call.
func NewHandler(apiKey string, trimmer types.TitleTrimmer, logger types.Logger) *Handler {
	return &Handler{
		apiKey:  apiKey,
		trimmer: trimmer,
		logger:  logger,
	}
}

// HealthCheck returns the health status of the relay
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// TrimTitle shortens the posted title. Model failures are not surfaced:
// the original title is returned instead.
func (h *Handler) TrimTitle(c *gin.Context) {
	if h.apiKey == "" {
		h.logger.Error("Missing OPENAI_API_KEY environment variable")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Missing API key configuration"})
		return
	}

	var req TrimTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" {
		h.logger.Warnf("Missing title in request body (bind error: %v)", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing title"})
		return
	}

	trimmed, err := h.trimmer.TrimTitle(c.Request.Context(), req.Title)
	if err != nil || trimmed == "" {
		h.logger.Warnf("Model call failed, returning original title: %v", err)
		c.JSON(http.StatusOK, TrimTitleResponse{TrimmedTitle: req.Title})
		return
	}

	h.logger.Infof("Trimmed %q to %q", req.Title, trimmed)
	c.JSON(http.StatusOK, TrimTitleResponse{TrimmedTitle: trimmed})
}
