// Package handler exposes the ingest surface. Each route binds and
// validates one inbound event body, publishes it on the event bus, and
// waits for the subscribed reconciliation handler to commit.
package handler

import (
	"net/http"

	"reassessment_tracker/internal/events"
	"reassessment_tracker/internal/reassessment/transport"
	"reassessment_tracker/platform/httpkit"
	"reassessment_tracker/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP ingest requests for reassessment events.
type Handler struct {
	bus events.Bus
	val *validator.Validator
}

// New creates a new ingest handler.
func New(bus events.Bus, val *validator.Validator) *Handler {
	return &Handler{bus: bus, val: val}
}

// RegisterRoutes registers the ingest routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reassessment-started", h.ReassessmentStarted)
	rg.POST("/settlement-linked", h.SettlementLinked)
	rg.POST("/settlement-resolved", h.SettlementResolved)
	rg.POST("/period-failed", h.PeriodFailed)
	rg.POST("/period-discarded", h.PeriodDiscarded)
}

// ReassessmentStarted handles POST /api/v1/ingest/reassessment-started
func (h *Handler) ReassessmentStarted(c *gin.Context) {
	var req transport.ReassessmentStartedRequest
	if !h.bind(c, &req) {
		return
	}

	periods := make([]events.StartedPeriod, len(req.Periods))
	for i, p := range req.Periods {
		periods[i] = events.StartedPeriod{
			PeriodID:   p.PeriodID,
			OrgNumber:  p.OrgNumber,
			PeriodFrom: p.PeriodFrom,
			PeriodTo:   p.PeriodTo,
			AnchorDate: p.AnchorDate,
		}
	}

	h.publish(c, events.ReassessmentStarted{
		BaseEvent:      events.NewBaseEvent(),
		ReassessmentID: req.ReassessmentID,
		SourceID:       req.SourceID,
		SubjectID:      req.SubjectID,
		Cause:          req.Cause,
		CreatedAt:      req.CreatedAt,
		AnchorDate:     req.AnchorDate,
		ChangeFrom:     req.ChangeFrom,
		ChangeTo:       req.ChangeTo,
		Periods:        periods,
	})
}

// SettlementLinked handles POST /api/v1/ingest/settlement-linked
func (h *Handler) SettlementLinked(c *gin.Context) {
	var req transport.SettlementLinkedRequest
	if !h.bind(c, &req) {
		return
	}

	h.publish(c, events.SettlementLinked{
		BaseEvent:    events.NewBaseEvent(),
		PeriodID:     req.PeriodID,
		SettlementID: req.SettlementID,
	})
}

// SettlementResolved handles POST /api/v1/ingest/settlement-resolved
func (h *Handler) SettlementResolved(c *gin.Context) {
	var req transport.SettlementResolvedRequest
	if !h.bind(c, &req) {
		return
	}

	h.publish(c, events.SettlementResolved{
		BaseEvent:    events.NewBaseEvent(),
		SettlementID: req.SettlementID,
		Approved:     req.Approved,
		Automated:    req.Automated,
	})
}

// PeriodFailed handles POST /api/v1/ingest/period-failed
func (h *Handler) PeriodFailed(c *gin.Context) {
	var req transport.PeriodEventRequest
	if !h.bind(c, &req) {
		return
	}

	h.publish(c, events.PeriodFailed{
		BaseEvent: events.NewBaseEvent(),
		PeriodID:  req.PeriodID,
	})
}

// PeriodDiscarded handles POST /api/v1/ingest/period-discarded
func (h *Handler) PeriodDiscarded(c *gin.Context) {
	var req transport.PeriodEventRequest
	if !h.bind(c, &req) {
		return
	}

	h.publish(c, events.PeriodDiscarded{
		BaseEvent: events.NewBaseEvent(),
		PeriodID:  req.PeriodID,
	})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

// publish runs the subscribed handlers synchronously so a failed
// transaction surfaces to the caller and the event can be redelivered.
func (h *Handler) publish(c *gin.Context, ev events.Event) {
	if err := h.bus.PublishSync(c.Request.Context(), ev); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.IngestAck{Event: ev.EventName(), Applied: true})
}
