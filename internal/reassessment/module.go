// Package reassessment provides the status-reconciliation domain module.
package reassessment

import (
	"context"
	"fmt"

	"reassessment_tracker/internal/events"
	apphttp "reassessment_tracker/internal/http"
	"reassessment_tracker/internal/outbox"
	"reassessment_tracker/internal/reassessment/handler"
	"reassessment_tracker/internal/reassessment/repository"
	"reassessment_tracker/internal/reassessment/service"
	"reassessment_tracker/platform/logger"
	"reassessment_tracker/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the reassessment domain module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new reassessment module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, outboxRepo *outbox.Repository, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool, outboxRepo)
	svc := service.New(repo, log)
	h := handler.New(bus, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "reassessment"
}

// RegisterRoutes mounts the ingest routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Ingest)
}

// RegisterHandlers subscribes the reconciliation handlers to the
// inbound event stream.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ReassessmentStarted{}.EventName(), m)
	bus.Subscribe(events.SettlementLinked{}.EventName(), m)
	bus.Subscribe(events.SettlementResolved{}.EventName(), m)
	bus.Subscribe(events.PeriodFailed{}.EventName(), m)
	bus.Subscribe(events.PeriodDiscarded{}.EventName(), m)
}

// Handle routes events to the appropriate reconciliation handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ReassessmentStarted:
		return m.service.StartReassessment(ctx, e)
	case events.SettlementLinked:
		return m.service.LinkSettlement(ctx, e)
	case events.SettlementResolved:
		return m.service.ResolveSettlement(ctx, e)
	case events.PeriodFailed:
		return m.service.FailPeriod(ctx, e.PeriodID)
	case events.PeriodDiscarded:
		// Discarded periods fail their open reassessments the same way.
		return m.service.FailPeriod(ctx, e.PeriodID)
	default:
		return fmt.Errorf("unexpected event %q", event.EventName())
	}
}

// Compile-time check that Module implements http.Module.
var _ apphttp.Module = (*Module)(nil)
var _ events.Handler = (*Module)(nil)
