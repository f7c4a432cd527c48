// Package review is the operator queue for reconciliations the engine refused
// to settle automatically. Acknowledging an item records that an operator
// looked at it; it never touches the Cog hierarchy.
package review

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/logger"
	"cog_mailing_sync/platform/sanitize"
)

// Store is the persistence the service needs.
type Store interface {
	Create(ctx context.Context, p CreateParams) (Item, bool, error)
	List(ctx context.Context, status Status, limit, offset int) ([]Item, int, error)
	Get(ctx context.Context, id uuid.UUID) (Item, error)
	Acknowledge(ctx context.Context, id uuid.UUID, operator string, note *string) (Item, error)
}

// maxNoteLength matches the limit the API validates.
const maxNoteLength = 1000

type Service struct {
	repo Store
	log  *logger.Logger
}

func NewService(repo Store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// EnqueueParams describe a flagged (parcel, role).
type EnqueueParams struct {
	ParcelID        string
	RoleID          int
	Kind            string
	Message         string
	Details         any
	Classifications any
	SnapshotKey     string
}

// Enqueue stores a new open item. When the same (parcel, role, kind) is still
// open, that item is refreshed and returned with created false.
func (s *Service) Enqueue(ctx context.Context, p EnqueueParams) (Item, bool, error) {
	details, err := marshalOr(p.Details, "[]")
	if err != nil {
		return Item{}, false, apperr.Internal("encode review details").WithOp("review.Enqueue")
	}
	cls, err := marshalOr(p.Classifications, "{}")
	if err != nil {
		return Item{}, false, apperr.Internal("encode review classifications").WithOp("review.Enqueue")
	}

	var key *string
	if p.SnapshotKey != "" {
		key = &p.SnapshotKey
	}

	item, created, err := s.repo.Create(ctx, CreateParams{
		ParcelID:        p.ParcelID,
		RoleID:          p.RoleID,
		Kind:            p.Kind,
		Message:         p.Message,
		Details:         details,
		Classifications: cls,
		SnapshotKey:     key,
	})
	if err != nil {
		return Item{}, false, err
	}

	if !created {
		s.log.Info("review item already open", "review_id", item.ID.String(), "parcel_id", item.ParcelID, "role_id", item.RoleID, "kind", item.Kind)
		return item, false, nil
	}
	s.log.Info("review item enqueued", "review_id", item.ID.String(), "parcel_id", item.ParcelID, "role_id", item.RoleID, "kind", item.Kind)
	return item, true, nil
}

// List returns a page of items. Page is 1-based.
func (s *Service) List(ctx context.Context, status Status, page, limit int) ([]Item, int, error) {
	if page < 1 {
		page = 1
	}
	return s.repo.List(ctx, status, limit, (page-1)*limit)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	return s.repo.Get(ctx, id)
}

// Acknowledge closes an open item on behalf of operator.
func (s *Service) Acknowledge(ctx context.Context, id uuid.UUID, operator, note string) (Item, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return Item{}, apperr.Validation("operator is required").WithOp("review.Acknowledge")
	}

	var notePtr *string
	if n := sanitize.Note(note, maxNoteLength); n != "" {
		notePtr = &n
	}

	item, err := s.repo.Acknowledge(ctx, id, operator, notePtr)
	if err != nil {
		return Item{}, err
	}

	s.log.Info("review item acknowledged", "review_id", id.String(), "operator", operator)
	return item, nil
}

func marshalOr(v any, empty string) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage(empty), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return json.RawMessage(empty), nil
	}
	return data, nil
}
