package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/model"
	"github.com/fleveque/motqot/internal/service"
)

// QuoteHandler serves the current quote and triggers generations.
// All generations go through the State so concurrent requests never turn
// into concurrent provider calls.
type QuoteHandler struct {
	state  *service.State
	logger *zap.Logger
}

func NewQuoteHandler(state *service.State, logger *zap.Logger) *QuoteHandler {
	return &QuoteHandler{state: state, logger: logger}
}

type quoteResponse struct {
	service.Snapshot
	Due bool `json:"due"`
}

// GetQuote returns the current snapshot.
// Route: GET /api/v1/quote
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	due, err := h.state.Service().IsDue(c.Request.Context())
	if err != nil {
		h.logger.Error("checking due", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, quoteResponse{Snapshot: h.state.Snapshot(), Due: due})
}

// Generate asks the provider for a new quote.
// Route: POST /api/v1/quote/generate?lang=de
func (h *QuoteHandler) Generate(c *gin.Context) {
	q, err := h.state.Refresh(c.Request.Context(), c.Query("lang"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// Due reports whether today's quote still has to be generated.
// Route: GET /api/v1/quote/due
func (h *QuoteHandler) Due(c *gin.Context) {
	due, err := h.state.Service().IsDue(c.Request.Context())
	if err != nil {
		h.logger.Error("checking due", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"due": due, "today": h.state.Service().Today()})
}

// Events streams snapshots as server-sent events until the client leaves.
// Route: GET /api/v1/quote/events
func (h *QuoteHandler) Events(c *gin.Context) {
	updates, cancel := h.state.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snap := <-updates:
			c.SSEvent("snapshot", snap)
			return true
		}
	})
}

// writeError maps pipeline failures onto HTTP statuses.
func (h *QuoteHandler) writeError(c *gin.Context, err error) {
	body := gin.H{"error": service.Describe(err)}

	var httpErr *llm.HTTPError
	var transportErr *llm.TransportError
	switch {
	case errors.Is(err, service.ErrGenerationInFlight):
		body["code"] = "in_flight"
		c.JSON(http.StatusConflict, body)
	case errors.Is(err, model.ErrConfigIncomplete):
		body["code"] = "config_incomplete"
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.As(err, &httpErr):
		body["code"] = "provider_http"
		body["provider_status"] = httpErr.StatusCode
		c.JSON(http.StatusBadGateway, body)
	case errors.Is(err, llm.ErrMalformedResponse):
		body["code"] = "malformed_response"
		c.JSON(http.StatusBadGateway, body)
	case errors.As(err, &transportErr):
		body["code"] = "transport"
		c.JSON(http.StatusBadGateway, body)
	default:
		h.logger.Error("generating quote", zap.Error(err))
		c.JSON(http.StatusInternalServerError, body)
	}
}
