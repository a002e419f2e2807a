package presenter

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"

	"github.com/gamewiki/issuestore/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func Created(c echo.Context, payload any) error {
	return c.JSON(http.StatusCreated, payload)
}

func BadRequest(c echo.Context, err error) error {
	slog.InfoContext(c.Request().Context(), "bad request", slog.String("error", err.Error()), slog.String("module", "presenter"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func BadRequestMessage(c echo.Context, msg string) error {
	slog.InfoContext(c.Request().Context(), "bad request", slog.String("error", msg), slog.String("module", "presenter"))
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}

func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, errorResponse{Error: msg})
}

func TooManyRequests(c echo.Context, payload any) error {
	return c.JSON(http.StatusTooManyRequests, payload)
}

// traceID is attached to error logs so a response can be matched to its span.
func traceID(c echo.Context) slog.Attr {
	spanCtx := trace.SpanFromContext(c.Request().Context()).SpanContext()
	if !spanCtx.HasTraceID() {
		return slog.String("traceId", "")
	}
	return slog.String("traceId", spanCtx.TraceID().String())
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(c.Request().Context(), "internal error", slog.String("error", err.Error()), traceID(c), slog.String("module", "presenter"))
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

// Error maps a store error to its HTTP status.
func Error(c echo.Context, err error) error {
	ctx := c.Request().Context()
	switch {
	case errors.Is(err, domain.ErrValidation):
		return BadRequest(c, err)
	case errors.Is(err, domain.ErrNotFound):
		return NotFound(c, err.Error())
	case errors.Is(err, domain.ErrCapacityExceeded):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrTransport):
		slog.ErrorContext(ctx, "ticket store unavailable", slog.String("error", err.Error()), traceID(c), slog.String("module", "presenter"))
		return c.JSON(http.StatusBadGateway, errorResponse{Error: "storage backend unavailable"})
	default:
		return InternalError(c, err)
	}
}
