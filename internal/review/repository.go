package review

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/db"
)

const (
	opCreate      = "review.repository.create"
	opList        = "review.repository.list"
	opGet         = "review.repository.get"
	opAcknowledge = "review.repository.acknowledge"

	errRepoNotConfigured = "review repository not configured"
	errItemNotFound      = "review item not found"
)

// Status is the lifecycle state of a review item.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
)

// Item is one (parcel, role) reconciliation that needs an operator.
type Item struct {
	ID              uuid.UUID       `json:"id"`
	ParcelID        string          `json:"parcelId"`
	RoleID          int             `json:"roleId"`
	Kind            string          `json:"kind"`
	Message         string          `json:"message"`
	Details         json.RawMessage `json:"details"`
	Classifications json.RawMessage `json:"classifications"`
	SnapshotKey     *string         `json:"snapshotKey,omitempty"`
	Status          Status          `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	ResolvedAt      *time.Time      `json:"resolvedAt,omitempty"`
	ResolvedBy      *string         `json:"resolvedBy,omitempty"`
	ResolutionNote  *string         `json:"resolutionNote,omitempty"`
}

// CreateParams are the stored fields of a new item.
type CreateParams struct {
	ParcelID        string
	RoleID          int
	Kind            string
	Message         string
	Details         json.RawMessage
	Classifications json.RawMessage
	SnapshotKey     *string
}

const itemColumns = `id, parcel_id, role_id, kind, message, details, classifications, snapshot_key,
	status, created_at, resolved_at, resolved_by, resolution_note`

// Repository persists review items.
type Repository struct {
	q db.Querier
}

// NewRepository creates a review repository.
func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// insertItemSQL upserts on the open-item index: a flag that is still open for
// the same (parcel, role, kind) is refreshed instead of duplicated. The last
// column reports whether a row was inserted.
const insertItemSQL = `
	INSERT INTO reconcile_review_items
	(id, parcel_id, role_id, kind, message, details, classifications, snapshot_key, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'open')
	ON CONFLICT (parcel_id, role_id, kind) WHERE status = 'open'
	DO UPDATE SET
		message = EXCLUDED.message,
		details = EXCLUDED.details,
		classifications = EXCLUDED.classifications,
		snapshot_key = COALESCE(EXCLUDED.snapshot_key, reconcile_review_items.snapshot_key)
	RETURNING ` + itemColumns + `, (xmax = 0)`

// Create stores an open item, or refreshes the open item already queued for
// the same (parcel, role, kind). The bool reports whether a new item was made.
func (r *Repository) Create(ctx context.Context, p CreateParams) (Item, bool, error) {
	if r == nil || r.q == nil {
		return Item{}, false, apperr.Internal(errRepoNotConfigured).WithOp(opCreate)
	}
	if p.ParcelID == "" || p.Kind == "" {
		return Item{}, false, apperr.Validation("parcelId and kind are required").WithOp(opCreate)
	}
	if len(p.Details) == 0 {
		p.Details = json.RawMessage("[]")
	}
	if len(p.Classifications) == 0 {
		p.Classifications = json.RawMessage("{}")
	}

	var inserted bool
	item, err := scanItem(r.q.QueryRow(ctx, insertItemSQL,
		uuid.New(), p.ParcelID, p.RoleID, p.Kind, p.Message, p.Details, p.Classifications, p.SnapshotKey),
		&inserted)
	if err != nil {
		return Item{}, false, apperr.Internal(fmt.Sprintf("create review item failed: %v", err)).WithOp(opCreate)
	}
	return item, inserted, nil
}

// List returns items newest first. An empty status lists every item.
func (r *Repository) List(ctx context.Context, status Status, limit, offset int) ([]Item, int, error) {
	if r == nil || r.q == nil {
		return nil, 0, apperr.Internal(errRepoNotConfigured).WithOp(opList)
	}

	var total int
	err := r.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM reconcile_review_items
		WHERE ($1 = '' OR status = $1)
	`, string(status)).Scan(&total)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count review items failed: %v", err)).WithOp(opList)
	}

	rows, err := r.q.Query(ctx, `
		SELECT `+itemColumns+`
		FROM reconcile_review_items
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3
	`, string(status), limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list review items query failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Item, 0, limit)
	for rows.Next() {
		item, scanErr := scanItem(rows)
		if scanErr != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan review items failed: %v", scanErr)).WithOp(opList)
		}
		items = append(items, item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("iterate review items failed: %v", rowsErr)).WithOp(opList)
	}

	return items, total, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (Item, error) {
	if r == nil || r.q == nil {
		return Item{}, apperr.Internal(errRepoNotConfigured).WithOp(opGet)
	}

	item, err := scanItem(r.q.QueryRow(ctx, `
		SELECT `+itemColumns+`
		FROM reconcile_review_items
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, apperr.NotFound(errItemNotFound).WithOp(opGet)
		}
		return Item{}, apperr.Internal(fmt.Sprintf("get review item failed: %v", err)).WithOp(opGet)
	}
	return item, nil
}

// Acknowledge marks an open item as reviewed. Acknowledging an item twice is
// a Conflict.
func (r *Repository) Acknowledge(ctx context.Context, id uuid.UUID, operator string, note *string) (Item, error) {
	if r == nil || r.q == nil {
		return Item{}, apperr.Internal(errRepoNotConfigured).WithOp(opAcknowledge)
	}

	item, err := scanItem(r.q.QueryRow(ctx, `
		UPDATE reconcile_review_items
		SET status = 'acknowledged', resolved_at = now(), resolved_by = $2, resolution_note = $3
		WHERE id = $1 AND status = 'open'
		RETURNING `+itemColumns,
		id, operator, note))
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Item{}, apperr.Internal(fmt.Sprintf("acknowledge review item failed: %v", err)).WithOp(opAcknowledge)
	}

	// Either missing or already acknowledged.
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return Item{}, getErr
	}
	return Item{}, apperr.Conflict("review item already acknowledged").WithOp(opAcknowledge)
}

// scanItem reads itemColumns followed by any extra destinations.
func scanItem(row pgx.Row, extra ...any) (Item, error) {
	var item Item
	var status string
	dest := []any{
		&item.ID, &item.ParcelID, &item.RoleID, &item.Kind, &item.Message,
		&item.Details, &item.Classifications, &item.SnapshotKey,
		&status, &item.CreatedAt, &item.ResolvedAt, &item.ResolvedBy, &item.ResolutionNote,
	}
	err := row.Scan(append(dest, extra...)...)
	item.Status = Status(status)
	return item, err
}
