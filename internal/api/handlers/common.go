// Package handlers implements the Gin-bound HTTP surface for the
// Account Service and the Transaction Service (spec.md §1 treats HTTP
// framing, routing, and JSON (de)serialization as external collaborators
// the orchestration core talks to only through plain interfaces).
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ledgerflow/txncore/pkg/errors"
)

// ErrorResponse is the JSON body every handler error path returns.
type ErrorResponse struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
}

// writeError dispatches err to the right HTTP status using the
// AppError taxonomy (pkg/errors), falling back to 500 for anything
// that isn't one.
func writeError(c *gin.Context, err error) {
	status := apperrors.GetStatusCode(err)
	resp := ErrorResponse{
		Error:     err.Error(),
		Code:      apperrors.GetCode(err),
		RequestID: c.GetString("request_id"),
	}
	var appErr *apperrors.AppError
	if ok := asAppError(err, &appErr); ok {
		resp.Error = appErr.Message
		resp.Details = appErr.Details
	}
	c.JSON(status, resp)
}

func asAppError(err error, target **apperrors.AppError) bool {
	appErr, ok := err.(*apperrors.AppError)
	if ok {
		*target = appErr
	}
	return ok
}

// bearer returns the raw Authorization header the auth middleware
// already validated, for forwarding to the Account Service (C4) or
// replay drivers as the caller's own principal.
func bearer(c *gin.Context) string {
	return c.GetString("bearer")
}

// subject returns the authenticated caller's subject claim.
func subject(c *gin.Context) string {
	return c.GetString("subject")
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     message,
		Code:      apperrors.CodeValidationFailed,
		RequestID: c.GetString("request_id"),
	})
}
