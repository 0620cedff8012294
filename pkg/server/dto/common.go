package dto

import (
	"errors"
)

// MaxQuestionLength bounds the size of a question accepted over HTTP.
const MaxQuestionLength = 4096

var (
	ErrQuestionTooLong = errors.New("question exceeds maximum length")
	ErrTextTooLong     = errors.New("text exceeds maximum length")
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
