package review

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"cog_mailing_sync/platform/logger"
)

// Module wires the review queue.
type Module struct {
	service *Service
}

// NewModule creates the review module over the service's own pool, so items
// survive a rolled-back reconciliation.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	return &Module{service: NewService(NewRepository(pool), log)}
}

// Service returns the review service.
func (m *Module) Service() *Service { return m.service }
