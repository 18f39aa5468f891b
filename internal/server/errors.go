package server

import (
	"errors"
	"net/http"

	"fjacquet/statement-insights/internal/parsererror"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code      parsererror.Code `json:"code"`
	Message   string           `json:"message"`
	Retryable bool             `json:"retryable"`
}

// StatusFor maps an error code onto an HTTP status.
func StatusFor(code parsererror.Code) int {
	switch code {
	case parsererror.CodeUnsupportedFileType:
		return http.StatusUnsupportedMediaType
	case parsererror.CodeFileTooLarge:
		return http.StatusRequestEntityTooLarge
	case parsererror.CodeInvalidFileContent,
		parsererror.CodeMissingRequiredColumn,
		parsererror.CodeNoValidRecords,
		parsererror.CodeDateParseFailure,
		parsererror.CodeAmountParseFailure,
		parsererror.CodePreconditionFailed:
		return http.StatusUnprocessableEntity
	case parsererror.CodeParseTimeout:
		return http.StatusGatewayTimeout
	case parsererror.CodeUploadNotFound:
		return http.StatusNotFound
	case parsererror.CodeConfiguration:
		return http.StatusServiceUnavailable
	case parsererror.CodeOCRFailure, parsererror.CodeRecommendationFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as an ErrorResponse. Internal errors are not echoed.
func respondError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		err = &parsererror.FileTooLargeError{Limit: maxBytes.Limit}
	}

	code := parsererror.CodeOf(err)
	msg := err.Error()
	if code == parsererror.CodeInternal {
		msg = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusFor(code), ErrorResponse{
		Code:      code,
		Message:   msg,
		Retryable: parsererror.IsRetryable(err),
	})
}

// badRequest reports a malformed request that never reached the pipeline.
func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
		Code:    "BAD_REQUEST",
		Message: msg,
	})
}
