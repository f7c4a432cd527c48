// Package cog wires access to the Cog mailing-address tables.
package cog

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cog_mailing_sync/internal/cog/repository"
	"cog_mailing_sync/platform/config"
	"cog_mailing_sync/platform/db"
)

// Module owns the Cog pool and the audit stamp for writes.
type Module struct {
	pool  *pgxpool.Pool
	audit repository.Audit
	repo  *repository.Repository
}

// NewModule creates the Cog module.
func NewModule(pool *pgxpool.Pool, cfg config.CogWriteConfig) *Module {
	return &Module{
		pool:  pool,
		audit: repository.Audit{UserID: cfg.GetCogUserID(), SourceID: cfg.GetCogSourceID()},
		repo:  repository.New(pool),
	}
}

// Repository returns a read repository over the pool.
func (m *Module) Repository() *repository.Repository { return m.repo }

// InTx runs fn with a repository and a write store bound to one transaction.
func (m *Module) InTx(ctx context.Context, fn func(ctx context.Context, repo *repository.Repository, store *repository.Store) error) error {
	return db.WithTx(ctx, m.pool, func(tx pgx.Tx) error {
		return fn(ctx, repository.New(tx), repository.NewStore(tx, m.audit))
	})
}
