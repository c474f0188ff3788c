package report

import (
	"context"
	"errors"
	"testing"
	"time"

	auditapp "github.com/erp/smarterp/internal/application/audit"
	"github.com/erp/smarterp/internal/application/state"
	"github.com/erp/smarterp/internal/domain/audit"
	"github.com/erp/smarterp/internal/domain/catalog"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/erp/smarterp/internal/domain/trade"
	"github.com/erp/smarterp/internal/infrastructure/cache"
	"github.com/erp/smarterp/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

const modelJSON = `{
  "summary": "- Wireless Mouse stock is critical: 5/20\n- Acme Corporation has ₺436,600 pending",
  "dataPoints": [{"label": "Total orders", "value": "142", "change": "+12%"}],
  "recommendedActions": ["Order 50 Wireless Mouse units", "Call Tech Solutions about ₺69,325"]
}`

type fixedSnapshot struct{ snap state.Snapshot }

func (f fixedSnapshot) Current(context.Context, time.Duration) (state.Snapshot, error) {
	return f.snap, nil
}

type recordingArchive struct {
	put []*report.Narrative
	err error
}

func (a *recordingArchive) Put(_ context.Context, n *report.Narrative) error {
	a.put = append(a.put, n)
	return a.err
}

type fixture struct {
	svc        *NarrativeService
	gen        *testutil.MockTextGenerator
	archive    *recordingArchive
	narratives shared.Repository[report.Narrative]
	events     shared.Repository[audit.Event]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	narratives := testutil.NewRepository[report.Narrative](db, report.CollectionNarratives)
	events := testutil.NewRepository[audit.Event](db, audit.CollectionEvents)
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { store.Close() })
	auditLog := auditapp.NewService(events, testutil.NewRepository[trade.Order](db, trade.CollectionOrders), store)

	snap := state.Snapshot{
		Products: []catalog.Product{{SKU: "MOU-01", Name: "Wireless Mouse", Stock: 5, MinStockLevel: testutil.IntPtr(20)}},
		LoadedAt: now,
	}
	gen := testutil.NewMockTextGenerator(t)
	archive := &recordingArchive{}

	svc := NewNarrativeService(narratives, fixedSnapshot{snap: snap}, gen, auditLog, archive)
	svc.now = func() time.Time { return now }
	return &fixture{svc: svc, gen: gen, archive: archive, narratives: narratives, events: events}
}

func TestNarrativeService_Generate(t *testing.T) {
	f := newFixture(t)
	f.gen.On("Generate", mock.Anything, mock.Anything).Return("```json\n"+modelJSON+"\n```", nil).Once()
	ctx := context.Background()

	n, err := f.svc.Generate(ctx, auditapp.Actor{ID: "u1", Name: "Ayşe"}, "")
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, "2025-03", n.Month)
	assert.Contains(t, n.Summary, "Wireless Mouse stock is critical")
	require.Len(t, n.DataPoints, 1)
	assert.Equal(t, "+12%", n.DataPoints[0].Change)
	assert.Len(t, n.RecommendedActions, 2)
	assert.Equal(t, GeneratedConfidence, n.Confidence)
	assert.Equal(t, GeneratedBy, n.CreatedBy)
	assert.Equal(t, now, n.GeneratedAt)

	assert.Contains(t, f.gen.LastPrompt(), "2025-03")
	assert.Contains(t, f.gen.LastPrompt(), "Low stock: Wireless Mouse")

	stored, err := f.narratives.GetByID(ctx, n.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, n.Summary, stored.Summary)

	events, err := f.events.GetAll(ctx, shared.NewQuery().Where("type", shared.OpEqual, string(audit.EventNarrativeGenerated)))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, n.ID, events[0].EntityID)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, "Narrative generated with Gemini", events[0].Description)

	require.Len(t, f.archive.put, 1)
	assert.Equal(t, n.ID, f.archive.put[0].ID)
}

func TestNarrativeService_GenerateArchiveFailureIsTolerated(t *testing.T) {
	f := newFixture(t)
	f.archive.err = errors.New("bucket missing")
	f.gen.On("Generate", mock.Anything, mock.Anything).Return(modelJSON, nil).Once()

	n, err := f.svc.Generate(context.Background(), auditapp.Actor{ID: "u1"}, "2025-02")
	require.NoError(t, err)
	assert.Equal(t, "2025-02", n.Month)
}

func TestNarrativeService_GenerateFailures(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{"generator error", "", shared.NewExternalServiceError("gemini", errors.New("quota exceeded"))},
		{"not json", "Here is your report: all good", nil},
		{"no summary", `{"dataPoints": [], "recommendedActions": []}`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gen.On("Generate", mock.Anything, mock.Anything).Return(tt.response, tt.err).Once()

			_, err := f.svc.Generate(context.Background(), auditapp.Actor{ID: "u1"}, "2025-03")
			var ext *shared.ExternalServiceError
			require.ErrorAs(t, err, &ext)

			all, err := f.narratives.GetAll(context.Background(), shared.NewQuery())
			require.NoError(t, err)
			assert.Empty(t, all, "nothing is stored on failure")
			assert.Empty(t, f.archive.put)
		})
	}
}

func TestNarrativeService_GenerateRejectsBadMonth(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Generate(context.Background(), auditapp.Actor{}, "March 2025")
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "month", verr.Field)
	f.gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestNarrativeService_ReviewAction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, err := f.narratives.Create(ctx, &report.Narrative{
		Month: "2025-03", Summary: "- ok", GeneratedAt: now,
		RecommendedActions: []string{"Order 50 Wireless Mouse units", "Call Tech Solutions"},
	})
	require.NoError(t, err)

	eventID, err := f.svc.ReviewAction(ctx, auditapp.Actor{ID: "u2", Name: "Mehmet"}, id, 1)
	require.NoError(t, err)

	ev, err := f.events.GetByID(ctx, eventID)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, audit.EventNarrativeActionReviewed, ev.Type)
	assert.Equal(t, "Action reviewed: Call Tech Solutions", ev.Description)
	assert.Equal(t, id, ev.Metadata["narrativeId"])
	assert.Equal(t, "Call Tech Solutions", ev.Metadata["action"])

	_, err = f.svc.ReviewAction(ctx, auditapp.Actor{ID: "u2"}, id, 5)
	var verr *shared.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.ReviewAction(ctx, auditapp.Actor{ID: "u2"}, "ghost", 0)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNarrativeService_LatestAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Latest(ctx)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	for i, month := range []string{"2025-01", "2025-02", "2025-03"} {
		_, err := f.narratives.Create(ctx, &report.Narrative{Month: month, Summary: month, GeneratedAt: now.AddDate(0, i, 0)})
		require.NoError(t, err)
	}

	latest, err := f.svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2025-03", latest.Month)

	list, err := f.svc.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-03", list[0].Month)
	assert.Equal(t, "2025-02", list[1].Month)
}

func TestParseGenerated(t *testing.T) {
	out, err := parseGenerated("```json\n" + modelJSON + "\n```\n")
	require.NoError(t, err)
	assert.Len(t, out.RecommendedActions, 2)

	out, err = parseGenerated("```\n" + modelJSON + "```")
	require.NoError(t, err)
	assert.NotEmpty(t, out.Summary)
}
