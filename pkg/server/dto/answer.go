package dto

import (
	"errors"
	"strings"
)

// AnswerRequest is the body of POST /api/v1/answer.
type AnswerRequest struct {
	Question string `json:"question" binding:"required"`
	// ShowRows includes the rows returned by the generated query.
	ShowRows bool `json:"show_rows,omitempty"`
}

// Validate performs validation on AnswerRequest
func (r *AnswerRequest) Validate() error {
	if strings.TrimSpace(r.Question) == "" {
		return errors.New("question cannot be empty")
	}
	if len(r.Question) > MaxQuestionLength {
		return ErrQuestionTooLong
	}
	return nil
}

// AnswerResponse carries the answer text. A failed pipeline still answers
// with status 200; Answer then reads "Error: <message>" and State is ERRORED.
type AnswerResponse struct {
	Answer     string           `json:"answer"`
	Query      string           `json:"query,omitempty"`
	RequestID  string           `json:"request_id"`
	State      string           `json:"state"`
	Rows       []map[string]any `json:"rows,omitempty"`
	DurationMs int64            `json:"duration_ms"`
}

// SchemaResponse carries the schema text given to the query generator.
type SchemaResponse struct {
	Schema            string `json:"schema"`
	Labels            int    `json:"labels"`
	RelationshipTypes int    `json:"relationship_types"`
}

// SimilarRequest is the body of POST /api/v1/similar.
type SimilarRequest struct {
	Text  string `json:"text" binding:"required"`
	Limit int    `json:"limit,omitempty"`
}

// Validate performs validation on SimilarRequest
func (r *SimilarRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text cannot be empty")
	}
	if len(r.Text) > MaxQuestionLength {
		return ErrTextTooLong
	}
	if r.Limit < 0 || r.Limit > 100 {
		return errors.New("limit must be between 0 and 100")
	}
	return nil
}

// SimilarPlayer is one nearest neighbour.
type SimilarPlayer struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SimilarResponse lists the players closest to the request text.
type SimilarResponse struct {
	Players []SimilarPlayer `json:"players"`
	Total   int             `json:"total"`
}
