// Package repository reads and writes the Cog mailing address hierarchy.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"cog_mailing_sync/internal/reconcile"
	"cog_mailing_sync/platform/apperr"
	"cog_mailing_sync/platform/db"
)

// Repository fetches internal hierarchy snapshots.
type Repository struct {
	q db.Querier
}

// New creates a repository over q, a pool or a transaction.
func New(q db.Querier) *Repository {
	return &Repository{q: q}
}

// FetchInternalHierarchy loads the parcel and the owner and mortgage mailing
// hierarchies linked to it. A parcel that does not resolve is NotFound.
// Missing rows are reported with Exists false; NULL columns become Null.
func (r *Repository) FetchInternalHierarchy(ctx context.Context, parcelID string) (reconcile.InternalSnapshot, error) {
	const op = "cog.FetchInternalHierarchy"

	var snap reconcile.InternalSnapshot

	var externalID *string
	err := r.q.QueryRow(ctx, queryParcelByExternalID, parcelID).Scan(&snap.Parcel.Key, &externalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, apperr.NotFound(fmt.Sprintf("parcel %q not found", parcelID)).WithOp(op)
		}
		return snap, fmt.Errorf("%s: parcel: %w", op, err)
	}
	snap.Parcel.Exists = true
	snap.Parcel.ExternalID = reconcile.FromPtr(externalID)

	links, err := r.roleLinkages(ctx, snap.Parcel.Key)
	if err != nil {
		return snap, fmt.Errorf("%s: linkages: %w", op, err)
	}

	for _, role := range reconcile.Roles {
		link, ok := links[role]
		if !ok {
			continue
		}
		h, err := r.hierarchy(ctx, link)
		if err != nil {
			return snap, fmt.Errorf("%s: %s hierarchy: %w", op, role, err)
		}
		switch role {
		case reconcile.RoleOwnerMailing:
			snap.Owner = h
		case reconcile.RoleMortgageMailing:
			snap.Mortgage = h
		}
	}

	return snap, nil
}

// roleLinkages returns the first active linkage per role.
func (r *Repository) roleLinkages(ctx context.Context, parcelKey int64) (map[reconcile.Role]reconcile.LinkageRow, error) {
	rows, err := r.q.Query(ctx, queryRoleLinkages, parcelKey,
		reconcile.RoleOwnerMailing.ID(), reconcile.RoleMortgageMailing.ID())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make(map[reconcile.Role]reconcile.LinkageRow, 2)
	for rows.Next() {
		var roleID int
		var addressID int64
		if err := rows.Scan(&roleID, &addressID); err != nil {
			return nil, err
		}
		role := reconcile.Role(roleID)
		if _, seen := links[role]; seen {
			continue
		}
		links[role] = reconcile.LinkageRow{Exists: true, RoleID: roleID, AddressID: addressID}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return links, nil
}

func (r *Repository) hierarchy(ctx context.Context, link reconcile.LinkageRow) (*reconcile.InternalHierarchy, error) {
	h := &reconcile.InternalHierarchy{Linkage: link}

	var bldg *string
	var streetID int64
	err := r.q.QueryRow(ctx, queryMailingAddress, link.AddressID).Scan(&h.MailingAddress.ID, &bldg, &streetID)
	if errors.Is(err, pgx.ErrNoRows) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	h.MailingAddress.Exists = true
	h.MailingAddress.BuildingNumber = reconcile.FromPtr(bldg)

	var name *string
	var variants []string
	var cszID int64
	err = r.q.QueryRow(ctx, queryStreet, streetID).Scan(&h.Street.ID, &name, &variants, &h.Street.IsPoBox, &cszID)
	if errors.Is(err, pgx.ErrNoRows) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	h.Street.Exists = true
	h.Street.Name = reconcile.FromPtr(name)
	h.Street.NameVariants = variants

	var zip, state, city, listType, defState, defCity, defType *string
	err = r.q.QueryRow(ctx, queryCityStateZip, cszID).Scan(
		&h.CityStateZip.ID, &zip, &state, &city, &listType, &defState, &defCity, &defType,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return h, nil
	}
	if err != nil {
		return nil, err
	}
	h.CityStateZip.Exists = true
	h.CityStateZip.ZipCode = reconcile.FromPtr(zip)
	h.CityStateZip.StateAbbr = reconcile.FromPtr(state)
	h.CityStateZip.City = reconcile.FromPtr(city)
	h.CityStateZip.ListType = reconcile.FromPtr(listType)
	h.CityStateZip.DefaultState = reconcile.FromPtr(defState)
	h.CityStateZip.DefaultCity = reconcile.FromPtr(defCity)
	h.CityStateZip.DefaultType = reconcile.FromPtr(defType)

	return h, nil
}

// ListActiveParcelIDs returns up to limit active county parcel identifiers
// ordered ascending and strictly after afterID. Pass "" for the first page.
func (r *Repository) ListActiveParcelIDs(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := r.q.Query(ctx, queryListActiveParcelIDs, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan parcel id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	return ids, nil
}
