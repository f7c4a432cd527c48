package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"cog_mailing_sync/internal/reconcile"
	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/db"
)

// Audit identifies who and what wrote a row.
type Audit struct {
	UserID   int
	SourceID int
}

// Store implements reconcile.Store. It is meant to run over a pgx.Tx so a
// failed plan leaves nothing behind.
type Store struct {
	q     db.Querier
	audit Audit
}

var _ reconcile.Store = (*Store)(nil)

// NewStore creates a write store.
func NewStore(q db.Querier, audit Audit) *Store {
	return &Store{q: q, audit: audit}
}

func (s *Store) FindCityStateZip(ctx context.Context, key reconcile.CityStateZipKey) (int64, bool, error) {
	return s.findID(ctx, queryFindCityStateZip, key.City, key.State, key.Zip)
}

func (s *Store) CreateCityStateZip(ctx context.Context, city, state string, zip *string) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, queryCreateCityStateZip, city, state, zip, s.audit.SourceID, s.audit.UserID).Scan(&id)
	if err != nil {
		return 0, mapWriteError("create city/state/zip", err)
	}
	return id, nil
}

func (s *Store) FindStreet(ctx context.Context, cityStateZipID int64, name string) (int64, bool, error) {
	return s.findID(ctx, queryFindStreet, cityStateZipID, name)
}

func (s *Store) CreateStreet(ctx context.Context, cityStateZipID int64, name string) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, queryCreateStreet, name, cityStateZipID, s.audit.UserID).Scan(&id)
	if err != nil {
		return 0, mapWriteError("create street", err)
	}
	return id, nil
}

func (s *Store) FindMailingAddress(ctx context.Context, streetID int64, buildingNumber string) (int64, bool, error) {
	return s.findID(ctx, queryFindMailingAddress, streetID, buildingNumber)
}

func (s *Store) CreateMailingAddress(ctx context.Context, streetID int64, buildingNumber string) (int64, error) {
	var id int64
	err := s.q.QueryRow(ctx, queryCreateMailingAddress, buildingNumber, streetID, s.audit.SourceID, s.audit.UserID).Scan(&id)
	if err != nil {
		return 0, mapWriteError("create mailing address", err)
	}
	return id, nil
}

func (s *Store) LinkRole(ctx context.Context, parcelKey, mailingAddressID int64, role reconcile.Role) error {
	_, err := s.q.Exec(ctx, queryLinkRole, parcelKey, mailingAddressID, role.ID(), s.audit.SourceID, s.audit.UserID)
	if err != nil {
		return mapWriteError("link role", err)
	}
	return nil
}

func (s *Store) findID(ctx context.Context, query string, args ...any) (int64, bool, error) {
	var id int64
	err := s.q.QueryRow(ctx, query, args...).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

func mapWriteError(what string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Wrap(apperr.KindConflict, what+": row already exists", err)
		case "23503":
			return apperr.Wrap(apperr.KindNotFound, what+": referenced row missing", err)
		}
	}
	return fmt.Errorf("%s: %w", what, err)
}
