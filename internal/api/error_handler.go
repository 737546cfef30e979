package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sinanour/cultivate-sub001/internal/domain"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
	"github.com/sinanour/cultivate-sub001/internal/pkg/logger"
)

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	msg := "internal error"
	code := http.StatusInternalServerError
	kind := constants.KindInternal

	for e := err; e != nil; e = errors.Unwrap(e) {
		if ce, ok := e.(*constants.CodedError); ok {
			// The caller sees the coded message only; underlying causes stay
			// in the logs.
			code = ce.Code()
			kind = ce.Kind()
			msg = ce.Message()
			break
		}
		var he *echo.HTTPError
		if errors.As(e, &he) {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			}
			break
		}
	}

	if code >= http.StatusInternalServerError {
		logger.Errorf(c.Request().Context(), "request failed: %s", err.Error())
	}

	_ = c.JSON(code, domain.ErrorResponse{
		Message: msg,
		Kind:    kind,
		Code:    code,
	})
}
