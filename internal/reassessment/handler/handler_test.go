package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"reassessment_tracker/internal/events"
	"reassessment_tracker/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type captureBus struct {
	published []events.Event
	err       error
}

func (b *captureBus) Publish(ctx context.Context, event events.Event) {}

func (b *captureBus) PublishSync(ctx context.Context, event events.Event) error {
	if b.err != nil {
		return b.err
	}
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(eventName string, handler events.Handler) {}

func newTestRouter(bus *captureBus) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	h := New(bus, validator.New())
	h.RegisterRoutes(engine.Group("/api/v1/ingest"))
	return engine
}

func post(t *testing.T, engine *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestReassessmentStartedPublishesEvent(t *testing.T) {
	bus := &captureBus{}
	engine := newTestRouter(bus)

	body := map[string]any{
		"reassessmentId": uuid.NewString(),
		"sourceId":       uuid.NewString(),
		"subjectId":      "12345678901",
		"cause":          "CORRECTED_TIMESHEET",
		"createdAt":      "2026-02-10T08:30:00Z",
		"anchorDate":     "2026-02-01T00:00:00Z",
		"changeFrom":     "2026-01-01T00:00:00Z",
		"changeTo":       "2026-01-31T00:00:00Z",
		"periods": []map[string]any{
			{
				"periodId":   uuid.NewString(),
				"orgNumber":  "987654321",
				"periodFrom": "2026-01-01T00:00:00Z",
				"periodTo":   "2026-01-31T00:00:00Z",
				"anchorDate": "2026-02-01T00:00:00Z",
			},
		},
	}

	rec := post(t, engine, "/api/v1/ingest/reassessment-started", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	ev, ok := bus.published[0].(events.ReassessmentStarted)
	if !ok {
		t.Fatalf("expected ReassessmentStarted, got %T", bus.published[0])
	}
	if ev.SubjectID != "12345678901" {
		t.Errorf("subject id not carried: %q", ev.SubjectID)
	}
	if len(ev.Periods) != 1 || ev.Periods[0].OrgNumber != "987654321" {
		t.Errorf("periods not carried: %+v", ev.Periods)
	}
}

func TestReassessmentStartedRejectsMissingPeriods(t *testing.T) {
	bus := &captureBus{}
	engine := newTestRouter(bus)

	body := map[string]any{
		"reassessmentId": uuid.NewString(),
		"sourceId":       uuid.NewString(),
		"subjectId":      "12345678901",
		"cause":          "CORRECTED_TIMESHEET",
		"createdAt":      "2026-02-10T08:30:00Z",
		"anchorDate":     "2026-02-01T00:00:00Z",
		"changeFrom":     "2026-01-01T00:00:00Z",
		"changeTo":       "2026-01-31T00:00:00Z",
		"periods":        []map[string]any{},
	}

	rec := post(t, engine, "/api/v1/ingest/reassessment-started", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(bus.published) != 0 {
		t.Errorf("event published despite validation failure")
	}
}

func TestSettlementResolvedPublishesDecision(t *testing.T) {
	bus := &captureBus{}
	engine := newTestRouter(bus)
	settlementID := uuid.New()

	rec := post(t, engine, "/api/v1/ingest/settlement-resolved", map[string]any{
		"settlementId": settlementID.String(),
		"approved":     true,
		"automated":    true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	ev, ok := bus.published[0].(events.SettlementResolved)
	if !ok {
		t.Fatalf("expected SettlementResolved, got %T", bus.published[0])
	}
	if ev.SettlementID != settlementID || !ev.Approved || !ev.Automated {
		t.Errorf("decision not carried: %+v", ev)
	}
}

func TestPeriodFailedRejectsMalformedBody(t *testing.T) {
	bus := &captureBus{}
	engine := newTestRouter(bus)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/period-failed", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
