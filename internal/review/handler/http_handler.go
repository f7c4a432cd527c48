package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"cog_mailing_sync/internal/review"
	"cog_mailing_sync/internal/review/transport"
	"cog_mailing_sync/platform/httpkit"
	"cog_mailing_sync/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultLimit = 20
	msgInvalidID = "invalid review item id"
)

// Service is the review behaviour the handler exposes.
type Service interface {
	List(ctx context.Context, status review.Status, page, limit int) ([]review.Item, int, error)
	Get(ctx context.Context, id uuid.UUID) (review.Item, error)
	Acknowledge(ctx context.Context, id uuid.UUID, operator, note string) (review.Item, error)
}

// SnapshotLinker presigns archived Gaze responses.
type SnapshotLinker interface {
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
}

type HTTPHandler struct {
	svc       Service
	snapshots SnapshotLinker
	val       *validator.Validator
}

func NewHTTPHandler(svc Service, snapshots SnapshotLinker, val *validator.Validator) *HTTPHandler {
	return &HTTPHandler{svc: svc, snapshots: snapshots, val: val}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/items", h.List)
	rg.GET("/items/:id", h.Get)
	rg.GET("/items/:id/snapshot", h.Snapshot)
	rg.POST("/items/:id/acknowledge", h.Acknowledge)
}

func (h *HTTPHandler) List(c *gin.Context) {
	var req transport.ListItemsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}

	items, total, err := h.svc.List(c.Request.Context(), review.Status(req.Status), req.Page, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ListItemsResponse{
		Items: items,
		Total: total,
		Page:  req.Page,
		Limit: req.Limit,
	})
}

func (h *HTTPHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	item, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}

func (h *HTTPHandler) Acknowledge(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var req transport.AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	item, err := h.svc.Acknowledge(c.Request.Context(), id, identity.Subject(), req.Note)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, item)
}

// Snapshot returns a short-lived link to the Gaze response the item was
// flagged from.
func (h *HTTPHandler) Snapshot(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	item, err := h.svc.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	if h.snapshots == nil || item.SnapshotKey == nil {
		httpkit.Error(c, http.StatusNotFound, "no snapshot archived for this item", nil)
		return
	}

	link, expiresAt, err := h.snapshots.DownloadURL(c.Request.Context(), *item.SnapshotKey)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.SnapshotLinkResponse{URL: link, ExpiresAt: expiresAt})
}
