package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Machine-readable error codes surfaced in the envelope.
const (
	CodeValidationFailed   = "validation_failed"
	CodeEmailExists        = "email_exists"
	CodeOwnerInvalid       = "owner_invalid"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidRating      = "invalid_rating"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeInternal           = "internal_error"
	CodeInvalidRequest     = "invalid_request"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusBadRequest, code, message, nil)
}

// RespondBindError carries field detail for malformed request bodies; domain
// rule failures go through RespondBadRequest with a terse message instead.
func RespondBindError(ctx *gin.Context, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, CodeInvalidRequest, "Invalid request body", details)
}

func RespondUnAuthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, CodeUnauthorized, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, CodeForbidden, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, CodeNotFound, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, CodeInternal, message, nil)
}
