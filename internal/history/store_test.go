package history

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/HealthForge/vitalsim/internal/generator"
	"github.com/HealthForge/vitalsim/internal/store"
	"github.com/HealthForge/vitalsim/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *HistoryStore {
	t.Helper()
	db, err := store.New(":memory:")
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(context.Background(), "history", Migrations()))
	return NewHistoryStore(db.DB())
}

func genSeries(t *testing.T, n int) models.Series {
	t.Helper()
	synth := generator.New(rand.New(rand.NewPCG(30, 31)))
	series, err := synth.Series(time.Date(2025, 6, 1, 6, 0, 0, 0, time.Local),
		time.Duration(n-1)*time.Minute, time.Minute)
	require.NoError(t, err)
	return series
}

func TestInsertPatient_AndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().Truncate(time.Second)
	p := &Patient{ID: "pat-001", Name: "Person_1", CreatedAt: now}
	require.NoError(t, s.InsertPatient(ctx, p))

	got, err := s.GetPatient(ctx, "pat-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Person_1", got.Name)
}

func TestGetPatient_NotFound(t *testing.T) {
	s := testStore(t)
	got, err := s.GetPatient(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertSeries_AndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	series := genSeries(t, 13)
	rec := &SeriesRecord{
		ID:           "ser-001",
		StartedAt:    series[0].Timestamp.Time(),
		IntervalSecs: 60,
		CreatedAt:    time.Now().Truncate(time.Second),
	}
	require.NoError(t, s.InsertSeries(ctx, rec, series))

	gotRec, gotSeries, err := s.GetSeries(ctx, "ser-001")
	require.NoError(t, err)
	require.NotNil(t, gotRec)
	assert.Equal(t, 13, gotRec.ReadingCount)
	require.Len(t, gotSeries, 13)

	// Readings come back in position order with fields intact.
	for i, r := range gotSeries {
		assert.True(t, r.Timestamp.Time().Equal(series[i].Timestamp.Time()),
			"reading %d timestamp", i)
		assert.Equal(t, series[i].HeartRate, r.HeartRate, "reading %d heart_rate", i)
		assert.Equal(t, series[i].Alert == nil, r.Alert == nil, "reading %d alert presence", i)
	}
}

func TestGetSeries_NotFound(t *testing.T) {
	s := testStore(t)
	rec, series, err := s.GetSeries(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Nil(t, series)
}

func TestListSeriesByPatient(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := &Patient{ID: "pat-002", Name: "Person_2", CreatedAt: time.Now()}
	require.NoError(t, s.InsertPatient(ctx, p))

	for i, id := range []string{"ser-a", "ser-b"} {
		rec := &SeriesRecord{
			ID:           id,
			PatientID:    "pat-002",
			StartedAt:    time.Now(),
			IntervalSecs: 60,
			CreatedAt:    time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, s.InsertSeries(ctx, rec, genSeries(t, 3)), id)
	}

	recs, err := s.ListSeriesByPatient(ctx, "pat-002", 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	// Newest first.
	assert.Equal(t, "ser-b", recs[0].ID)
}

func TestLiveReadings(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	got, err := s.LatestLiveReading(ctx, "pat-003")
	require.NoError(t, err)
	assert.Nil(t, got)

	series := genSeries(t, 3)
	for _, r := range series {
		require.NoError(t, s.InsertLiveReading(ctx, "pat-003", r))
	}

	got, err = s.LatestLiveReading(ctx, "pat-003")
	require.NoError(t, err)
	require.NotNil(t, got)
	last := series[len(series)-1]
	assert.Equal(t, last.HeartRate, got.HeartRate)
	assert.True(t, got.Timestamp.Time().Equal(last.Timestamp.Time()))
}

func TestDocuments(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertPatient(ctx, &Patient{ID: "pat-001", Name: "Person_1", CreatedAt: time.Now()}))

	long := strings.Repeat("a", 300)
	docs := []*Document{
		{ID: "doc-1", PatientID: "pat-001", Type: "lab_result", Filename: "labs.pdf",
			Text: "Hemoglobin normal.", UploadedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)},
		{ID: "doc-2", PatientID: "pat-001", Type: "prescription",
			Text: long, UploadedAt: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)},
	}
	for _, d := range docs {
		require.NoError(t, s.InsertDocument(ctx, d))
	}

	listed, err := s.ListDocuments(ctx, "pat-001")
	require.NoError(t, err)
	require.Len(t, listed, 2)

	// Newest first.
	assert.Equal(t, "doc-2", listed[0].ID)
	assert.Equal(t, "doc-1", listed[1].ID)

	// Listings carry previews, not full text.
	assert.Empty(t, listed[0].Text)
	assert.Equal(t, strings.Repeat("a", 200)+"...", listed[0].TextPreview)
	assert.Equal(t, "Hemoglobin normal.", listed[1].TextPreview)

	got, err := s.GetDocument(ctx, "pat-001", "doc-2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, long, got.Text)
	assert.Equal(t, "prescription", got.Type)

	missing, err := s.GetDocument(ctx, "pat-001", "doc-99")
	require.NoError(t, err)
	assert.Nil(t, missing)

	none, err := s.ListDocuments(ctx, "pat-other")
	require.NoError(t, err)
	assert.Empty(t, none)
}
