package rest

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gamewiki/issuestore/internal/codec"
	"github.com/gamewiki/issuestore/internal/config"
	"github.com/gamewiki/issuestore/internal/domain"
	"github.com/gamewiki/issuestore/internal/infra/metrics"
	"github.com/gamewiki/issuestore/internal/present/rest/middleware"
	"github.com/gamewiki/issuestore/internal/present/rest/presenter"
	"github.com/gamewiki/issuestore/internal/usecase"
)

const maxBodyBytes = 64 << 10

type Handler struct {
	collections *usecase.CollectionUsecase
	pictures    *usecase.ProfilePictureUsecase
	rateLimit   *usecase.RateLimitUsecase
	limits      config.RateLimit
}

func NewHandler(
	limits config.RateLimit,
	collections *usecase.CollectionUsecase,
	pictures *usecase.ProfilePictureUsecase,
	rateLimit *usecase.RateLimitUsecase,
) *Handler {
	return &Handler{
		collections: collections,
		pictures:    pictures,
		rateLimit:   rateLimit,
		limits:      limits,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.handleHealth)

	v1 := e.Group("/api/v1")
	v1.GET("/collections/:type", h.handleCollectionGet, middleware.RequireRequester)
	v1.POST("/collections/:type", h.handleCollectionAdd, middleware.RequireRequester)
	v1.PATCH("/collections/:type/:id", h.handleCollectionUpdate, middleware.RequireRequester)
	v1.DELETE("/collections/:type/:id", h.handleCollectionDelete, middleware.RequireRequester)
	v1.GET("/users/:userId/collections/:type", h.handleUserCollection)

	v1.GET("/profile-pictures", h.handleProfilePictureList)
	v1.GET("/profile-pictures/:userId", h.handleProfilePictureGet)
	v1.PUT("/profile-pictures", h.handleProfilePictureSave, middleware.RequireRequester)
	v1.DELETE("/profile-pictures", h.handleProfilePictureDelete, middleware.RequireRequester)

	v1.POST("/rate-limit/check", h.handleRateLimitCheck)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func readRecord(c echo.Context) (domain.Record, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	record, err := codec.DecodeRecord(string(body))
	if err != nil {
		return nil, domain.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}
	return record, nil
}

func requester(c echo.Context) domain.Owner {
	owner, _ := domain.RequesterFromContext(c.Request().Context())
	return owner
}

// handleCollectionGet renders a read failure as an empty collection.
func (h *Handler) handleCollectionGet(c echo.Context) error {
	ctx := c.Request().Context()
	recordType := c.Param("type")

	records, err := h.collections.Get(ctx, recordType, requester(c))
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.Error(c, err)
		}
		slog.WarnContext(
			ctx, "collection read failed; returning empty",
			slog.String("error", err.Error()),
			slog.String("recordType", recordType),
			slog.String("module", "rest"),
		)
		return presenter.OK(c, []domain.Record{})
	}
	return presenter.OK(c, records)
}

func (h *Handler) handleUserCollection(c echo.Context) error {
	ctx := c.Request().Context()
	recordType := c.Param("type")

	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return presenter.BadRequestMessage(c, "invalid user id")
	}
	owner := domain.Owner{UserID: userID, Username: c.QueryParam("username")}

	records, err := h.collections.Get(ctx, recordType, owner)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return presenter.Error(c, err)
		}
		slog.WarnContext(
			ctx, "collection read failed; returning empty",
			slog.String("error", err.Error()),
			slog.String("recordType", recordType),
			slog.String("module", "rest"),
		)
		return presenter.OK(c, []domain.Record{})
	}
	return presenter.OK(c, records)
}

func (h *Handler) handleCollectionAdd(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := readRecord(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	records, err := h.collections.Add(ctx, c.Param("type"), requester(c), record)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, records)
}

func (h *Handler) handleCollectionUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	patch, err := readRecord(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	records, err := h.collections.Update(ctx, c.Param("type"), requester(c), c.Param("id"), patch)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, records)
}

func (h *Handler) handleCollectionDelete(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := h.collections.Delete(ctx, c.Param("type"), requester(c), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, records)
}

func (h *Handler) handleProfilePictureList(c echo.Context) error {
	ctx := c.Request().Context()

	pictures, err := h.pictures.List(ctx)
	if err != nil {
		slog.WarnContext(
			ctx, "profile picture listing failed; returning empty",
			slog.String("error", err.Error()),
			slog.String("module", "rest"),
		)
		return presenter.OK(c, echo.Map{})
	}
	return presenter.OK(c, pictures)
}

func (h *Handler) handleProfilePictureGet(c echo.Context) error {
	ctx := c.Request().Context()

	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return presenter.BadRequestMessage(c, "invalid user id")
	}

	picture, err := h.pictures.Get(ctx, userID)
	if err != nil {
		return presenter.Error(c, err)
	}
	if picture == nil {
		return presenter.NotFound(c, "profile picture not found")
	}
	return presenter.OK(c, picture)
}

func (h *Handler) handleProfilePictureSave(c echo.Context) error {
	ctx := c.Request().Context()

	picture, err := readRecord(c)
	if err != nil {
		return presenter.Error(c, err)
	}

	saved, err := h.pictures.Save(ctx, requester(c), picture)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, saved)
}

func (h *Handler) handleProfilePictureDelete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.pictures.Delete(ctx, requester(c).UserID); err != nil {
		return presenter.Error(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type rateLimitRequest struct {
	Identifier  string `json:"identifier"`
	Max         int    `json:"max"`
	WindowHours int    `json:"windowHours"`
}

func (h *Handler) handleRateLimitCheck(c echo.Context) error {
	ctx := c.Request().Context()

	var req rateLimitRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequest(c, err)
	}
	if req.Identifier == "" {
		return presenter.BadRequestMessage(c, "identifier is required")
	}

	max := h.limits.Max
	if req.Max > 0 && req.Max < max {
		max = req.Max
	}
	// callers may tighten the configured policy, never loosen it
	window := h.limits.Window()
	if requested := time.Duration(req.WindowHours) * time.Hour; requested > window {
		window = requested
	}

	decision, err := h.rateLimit.CheckAndIncrement(ctx, usecase.HashIdentifier(req.Identifier), max, window)
	if err != nil {
		return presenter.Error(c, err)
	}
	metrics.RateLimitDecisions.WithLabelValues(strconv.FormatBool(decision.Allowed)).Inc()

	if !decision.Allowed {
		return presenter.TooManyRequests(c, decision)
	}
	return presenter.OK(c, decision)
}
