package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/footballkg"
	"github.com/soundprediction/footballkg/pkg/schema"
	"github.com/soundprediction/footballkg/pkg/server/dto"
)

// QA is the part of footballkg.Client served over HTTP.
type QA interface {
	Ask(ctx context.Context, question string) *footballkg.Answer
	Schema() *schema.Schema
	RefreshSchema(ctx context.Context) (*schema.Schema, error)
	SimilarPlayers(ctx context.Context, text string, k int) ([]footballkg.SimilarPlayer, error)
}

// AnswerHandler serves questions and schema requests.
type AnswerHandler struct {
	qa     QA
	logger *slog.Logger
}

// NewAnswerHandler creates an AnswerHandler. A nil logger uses slog.Default().
func NewAnswerHandler(qa QA, logger *slog.Logger) *AnswerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerHandler{qa: qa, logger: logger}
}

func (h *AnswerHandler) ready(c *gin.Context) bool {
	if h.qa == nil {
		writeError(c, http.StatusServiceUnavailable, "not_ready", "graph client not initialized")
		return false
	}
	return true
}

// Answer handles POST /api/v1/answer
func (h *AnswerHandler) Answer(c *gin.Context) {
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !h.ready(c) {
		return
	}

	a := h.qa.Ask(c.Request.Context(), req.Question)
	resp := dto.AnswerResponse{
		Answer:     a.String(),
		Query:      a.Query,
		RequestID:  a.RequestID,
		State:      string(a.State),
		DurationMs: a.Duration.Milliseconds(),
	}
	if req.ShowRows && a.Result != nil {
		resp.Rows = make([]map[string]any, 0, len(a.Result.Records))
		for _, rec := range a.Result.Records {
			resp.Rows = append(resp.Rows, rec.AsMap())
		}
	}
	c.JSON(http.StatusOK, resp)
}

// GetSchema handles GET /api/v1/schema
func (h *AnswerHandler) GetSchema(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	c.JSON(http.StatusOK, schemaResponse(h.qa.Schema()))
}

// RefreshSchema handles POST /api/v1/schema/refresh
func (h *AnswerHandler) RefreshSchema(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	s, err := h.qa.RefreshSchema(c.Request.Context())
	if err != nil {
		h.logger.Error("Schema refresh failed", "error", err)
		writeError(c, http.StatusBadGateway, "schema_refresh_failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, schemaResponse(s))
}

// Similar handles POST /api/v1/similar
func (h *AnswerHandler) Similar(c *gin.Context) {
	var req dto.SimilarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if !h.ready(c) {
		return
	}

	players, err := h.qa.SimilarPlayers(c.Request.Context(), req.Text, req.Limit)
	if errors.Is(err, footballkg.ErrNoEmbedder) {
		writeError(c, http.StatusNotImplemented, "not_configured", err.Error())
		return
	}
	if err != nil {
		writeError(c, http.StatusBadGateway, "similarity_failed", err.Error())
		return
	}

	resp := dto.SimilarResponse{Players: make([]dto.SimilarPlayer, 0, len(players))}
	for _, p := range players {
		resp.Players = append(resp.Players, dto.SimilarPlayer{Name: p.Name, Score: p.Score})
	}
	resp.Total = len(resp.Players)
	c.JSON(http.StatusOK, resp)
}

func schemaResponse(s *schema.Schema) dto.SchemaResponse {
	if s == nil {
		return dto.SchemaResponse{}
	}
	return dto.SchemaResponse{
		Schema:            s.String(),
		Labels:            len(s.Nodes),
		RelationshipTypes: len(s.Relationships),
	}
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{
		Error:   code,
		Message: message,
		Code:    status,
	})
}
