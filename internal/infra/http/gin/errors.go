package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"venuebook/internal/app/principal"
	"venuebook/internal/domain/shared/fault"
)

type errorPayload struct {
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

var errBadRequest = fault.Validation("invalid_request", "request body is malformed")

func statusFor(kind fault.Kind) int {
	switch kind {
	case fault.KindValidation:
		return http.StatusBadRequest
	case fault.KindAuthorization:
		return http.StatusForbidden
	case fault.KindNotFound:
		return http.StatusNotFound
	case fault.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"error":{kind,code,message}}. Unclassified errors are
// logged and reported with a generic message.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	f, ok := fault.As(err)
	if !ok {
		if logger != nil {
			logger.Error("request failed", "error", err, "path", c.FullPath(), "request_id", c.GetString("request_id"))
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: errorPayload{
			Kind:    string(fault.KindUpstream),
			Code:    "internal",
			Message: "internal error",
		}})
		return
	}
	status := statusFor(f.Kind)
	if errors.Is(err, principal.ErrUnauthenticated) {
		status = http.StatusUnauthorized
	}
	c.AbortWithStatusJSON(status, errorBody{Error: errorPayload{
		Kind:    string(f.Kind),
		Code:    f.Code,
		Message: f.Message,
	}})
}

func badRequest(c *gin.Context, err error) {
	var f *fault.Error
	if errors.As(err, &f) {
		writeError(c, nil, err)
		return
	}
	writeError(c, nil, errBadRequest.Withf("invalid request: %v", err))
}
