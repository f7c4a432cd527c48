// Package api mounts the review queue on the operator HTTP API.
package api

import (
	apphttp "cog_mailing_sync/internal/http"
	"cog_mailing_sync/internal/review"
	"cog_mailing_sync/internal/review/handler"
	"cog_mailing_sync/platform/validator"
)

// Module is the HTTP-facing review module.
type Module struct {
	handler *handler.HTTPHandler
}

var _ apphttp.Module = (*Module)(nil)

// NewModule creates the HTTP module. snapshots may be nil when the archive is
// disabled.
func NewModule(m *review.Module, snapshots handler.SnapshotLinker, val *validator.Validator) *Module {
	return &Module{handler: handler.NewHTTPHandler(m.Service(), snapshots, val)}
}

func (m *Module) Name() string { return "review" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Operator.Group("/review"))
}
