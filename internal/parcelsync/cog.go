package parcelsync

import (
	"context"

	"cog_mailing_sync/internal/cog"
	"cog_mailing_sync/internal/cog/repository"
	"cog_mailing_sync/internal/reconcile"
)

// CogUnitOfWork runs each role inside one Cog transaction.
type CogUnitOfWork struct {
	module *cog.Module
}

var _ UnitOfWork = (*CogUnitOfWork)(nil)

// NewCogUnitOfWork adapts the Cog module.
func NewCogUnitOfWork(m *cog.Module) *CogUnitOfWork {
	return &CogUnitOfWork{module: m}
}

// InTx implements UnitOfWork.
func (u *CogUnitOfWork) InTx(ctx context.Context, fn func(ctx context.Context, reader HierarchyReader, store reconcile.Store) error) error {
	return u.module.InTx(ctx, func(ctx context.Context, repo *repository.Repository, store *repository.Store) error {
		return fn(ctx, repo, store)
	})
}
