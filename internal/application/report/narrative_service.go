// Package report generates and reviews the AI-written monthly narratives.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/application/assistant"
	"github.com/erp/smarterp/internal/application/state"
	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/metrics"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/infrastructure/genai"
	"github.com/erp/smarterp/internal/infrastructure/logger"
	"github.com/erp/smarterp/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const (
	// GeneratedConfidence is the confidence recorded on generated narratives
	GeneratedConfidence = 0.85
	// GeneratedBy is the author recorded on generated narratives
	GeneratedBy = "ai"

	// DefaultListLimit bounds List when the caller passes no limit
	DefaultListLimit = 20

	featureNarrative = "narrative"
	generatorName    = "gemini"
)

// AuditLog appends audit events
type AuditLog interface {
	Log(ctx context.Context, ev audit.Event) (string, error)
}

// Archive keeps a copy of generated narratives
type Archive interface {
	Put(ctx context.Context, n *report.Narrative) error
}

// NarrativeService generates, lists and reviews narratives
type NarrativeService struct {
	narratives shared.Repository[report.Narrative]
	snapshots  assistant.SnapshotSource
	generator  genai.TextGenerator
	audit      AuditLog
	archive    Archive
	writer     *assistant.ContextWriter
	metrics    *telemetry.BusinessMetrics
	maxAge     time.Duration
	now        func() time.Time
}

// NewNarrativeService creates a narrative service. archive may be nil.
func NewNarrativeService(
	narratives shared.Repository[report.Narrative],
	snapshots assistant.SnapshotSource,
	generator genai.TextGenerator,
	auditLog AuditLog,
	archive Archive,
) *NarrativeService {
	return &NarrativeService{
		narratives: narratives,
		snapshots:  snapshots,
		generator:  generator,
		audit:      auditLog,
		archive:    archive,
		writer:     assistant.NewContextWriter(language.Turkish),
		maxAge:     assistant.DefaultContextMaxAge,
		now:        time.Now,
	}
}

// SetBusinessMetrics sets the business metrics recorder
func (s *NarrativeService) SetBusinessMetrics(m *telemetry.BusinessMetrics) {
	s.metrics = m
}

// generated is the JSON document the model is asked to return
type generated struct {
	Summary            string             `json:"summary"`
	DataPoints         []report.DataPoint `json:"dataPoints"`
	RecommendedActions []string           `json:"recommendedActions"`
}

// Generate asks the model for a narrative of month ("YYYY-MM", default the
// current month), stores it and records a narrativeGenerated event.
// Audit and archive failures are logged; the stored narrative is returned.
func (s *NarrativeService) Generate(ctx context.Context, actor auditapp.Actor, month string) (*report.Narrative, error) {
	ctx, span := telemetry.StartSpan(ctx, "report", "Generate")
	defer span.End()

	now := s.now()
	if month == "" {
		month = now.Format("2006-01")
	}
	if !report.ValidMonthKey(month) {
		return nil, shared.NewValidationError("month", "month must have the form YYYY-MM")
	}
	span.SetAttributes(attribute.String("report.month", month))
	log := logger.L(ctx).With(zap.String("month", month))

	snap, err := s.snapshots.Current(ctx, s.maxAge)
	if err != nil {
		log.Warn("Business context is incomplete", zap.Error(err))
	}

	start := s.now()
	text, err := s.generator.Generate(ctx, s.prompt(snap, month))
	s.metrics.RecordAIRequest(ctx, featureNarrative, s.now().Sub(start), err)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	out, err := parseGenerated(text)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Warn("Unusable narrative response", zap.Error(err))
		return nil, err
	}

	n := &report.Narrative{
		Month:              month,
		Summary:            out.Summary,
		DataPoints:         out.DataPoints,
		RecommendedActions: out.RecommendedActions,
		Confidence:         GeneratedConfidence,
		GeneratedAt:        now,
		CreatedBy:          GeneratedBy,
	}
	if n.DataPoints == nil {
		n.DataPoints = []report.DataPoint{}
	}
	if n.RecommendedActions == nil {
		n.RecommendedActions = []string{}
	}

	id, err := s.narratives.Create(ctx, n)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	n.ID = id
	log.Info("Narrative generated", zap.String("narrative_id", id), zap.Int("actions", len(n.RecommendedActions)))

	_, err = s.audit.Log(ctx, audit.Event{
		Type:        audit.EventNarrativeGenerated,
		EntityType:  audit.EntityNarrative,
		EntityID:    id,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Description: "Narrative generated with Gemini",
		Metadata:    map[string]any{"month": month},
	})
	if err != nil {
		log.Error("Failed to record narrativeGenerated event", zap.String("narrative_id", id), zap.Error(err))
	}

	if s.archive != nil {
		if err := s.archive.Put(ctx, n); err != nil {
			log.Warn("Failed to archive narrative", zap.String("narrative_id", id), zap.Error(err))
		}
	}
	return n, nil
}

// ReviewAction records that actor reviewed the recommended action at
// actionIndex of the narrative and returns the audit event id
func (s *NarrativeService) ReviewAction(ctx context.Context, actor auditapp.Actor, narrativeID string, actionIndex int) (string, error) {
	n, err := s.Get(ctx, narrativeID)
	if err != nil {
		return "", err
	}
	action, err := n.Action(actionIndex)
	if err != nil {
		return "", err
	}

	return s.audit.Log(ctx, audit.Event{
		Type:        audit.EventNarrativeActionReviewed,
		EntityType:  audit.EntityNarrative,
		EntityID:    n.ID,
		UserID:      actor.ID,
		UserName:    actor.Name,
		Description: "Action reviewed: " + action,
		Metadata: map[string]any{
			"narrativeId": n.ID,
			"action":      action,
			"actionIndex": actionIndex,
		},
	})
}

// Get returns one narrative
func (s *NarrativeService) Get(ctx context.Context, id string) (*report.Narrative, error) {
	if id == "" {
		return nil, shared.NewValidationError("id", "narrative id cannot be empty")
	}
	n, err := s.narratives.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, shared.ErrNotFound
	}
	return n, nil
}

// Latest returns the most recently generated narrative
func (s *NarrativeService) Latest(ctx context.Context) (*report.Narrative, error) {
	list, err := s.narratives.GetAll(ctx, metrics.LatestNarrativeQuery())
	if err != nil {
		return nil, err
	}
	latest, ok := metrics.LatestNarrative(list)
	if !ok {
		return nil, shared.ErrNotFound
	}
	return latest, nil
}

// List returns at most limit narratives, newest first
func (s *NarrativeService) List(ctx context.Context, limit int) ([]report.Narrative, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.narratives.GetAll(ctx, shared.NewQuery().OrderBy("generatedAt", shared.Desc).Limit(limit))
}

func (s *NarrativeService) prompt(snap state.Snapshot, month string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an ERP analyst. Analyse the data below for %s and answer in Turkish.\n\n", month)
	b.WriteString("ERP DATA:\n")
	b.WriteString(s.writer.Write(snap))
	b.WriteString(`
Return only a JSON object of this shape:
{"summary": "- finding with concrete figures\n- ...",
 "dataPoints": [{"label": "...", "value": "...", "change": "..."}],
 "recommendedActions": ["specific action naming a customer, product or amount"]}
`)
	return b.String()
}

// parseGenerated strips Markdown code fences and decodes the model output
func parseGenerated(text string) (*generated, error) {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var out generated
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, shared.NewExternalServiceError(generatorName, fmt.Errorf("narrative is not valid JSON: %w", err))
	}
	if strings.TrimSpace(out.Summary) == "" {
		return nil, shared.NewExternalServiceError(generatorName, errors.New("narrative has no summary"))
	}
	return &out, nil
}
