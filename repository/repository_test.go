package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/cepro/gridsim/kpi"
	"github.com/cepro/gridsim/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "archive.sqlite"))
	require.NoError(t, err)
	return repo
}

func testRun(ticks int) (StoredRun, []StoredTick) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	var records []telemetry.TickRecord
	for i := 0; i < ticks; i++ {
		records = append(records, telemetry.TickRecord{
			Tick: i,
			Time: start.Add(time.Duration(i) * time.Hour),
			Zones: []telemetry.ZoneReading{
				{ZoneID: "b", Load: 500, Price: 30},
				{ZoneID: "a", Load: 400, Price: 35},
			},
			Battery: telemetry.BatteryReading{SocMWh: 50, Mode: "idle"},
			Cash:    float64(i) * 100,
		})
	}
	totals := kpi.Totals{UnmetMWh: 1.5, Cash: 1234}
	totals.AddPrices(30, 40)
	card := kpi.Scorecard{Score: 77, Reliability: 0.99, Badges: []string{"Zero Shed Day", "Grid Operator"}, Totals: totals}

	return NewStoredRun(RunSummary{ID: uuid.New(), Region: "Flatland", Seed: 42, Start: start}, card, records)
}

func TestNewStoredRun(t *testing.T) {
	run, ticks := testRun(3)
	assert.Equal(t, 3, run.Ticks)
	assert.Equal(t, "Zero Shed Day,Grid Operator", run.Badges)
	assert.Equal(t, 35.0, run.AveragePrice)
	assert.Equal(t, 1234.0, run.Cash)
	require.Len(t, ticks, 6)
	for _, tick := range ticks {
		assert.Equal(t, run.ID, tick.RunID)
		assert.NotEqual(t, uuid.Nil, tick.ID)
	}
	assert.Equal(t, 200.0, ticks[5].Cash)
}

func TestArchiveAndUploadBookkeeping(t *testing.T) {
	repo := newTestRepository(t)

	first, firstTicks := testRun(3)
	second, secondTicks := testRun(2)
	require.NoError(t, repo.AddRun(first, firstTicks))
	require.NoError(t, repo.AddRun(second, secondTicks))

	count, err := repo.CountRuns()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	fresh, err := repo.GetRuns(10, true)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	// a failed upload moves the run out of the fresh set
	require.NoError(t, repo.IncrementUploadAttemptCount(first.ID))
	fresh, err = repo.GetRuns(10, true)
	require.NoError(t, err)
	require.Len(t, fresh, 1)
	assert.Equal(t, second.ID, fresh[0].ID)

	old, err := repo.GetRuns(10, false)
	require.NoError(t, err)
	require.Len(t, old, 1)
	assert.Equal(t, first.ID, old[0].ID)
	assert.Equal(t, uint(1), old[0].UploadAttemptCount)

	ticks, err := repo.GetTicks(first.ID)
	require.NoError(t, err)
	require.Len(t, ticks, 6)
	assert.Equal(t, 0, ticks[0].Tick)
	assert.Equal(t, "a", ticks[0].ZoneID)
	assert.Equal(t, "b", ticks[1].ZoneID)
	assert.Equal(t, 2, ticks[5].Tick)

	require.NoError(t, repo.DeleteRun(first.ID))
	ticks, err = repo.GetTicks(first.ID)
	require.NoError(t, err)
	assert.Empty(t, ticks)
	count, err = repo.CountRuns()
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// the other run is untouched
	ticks, err = repo.GetTicks(second.ID)
	require.NoError(t, err)
	assert.Len(t, ticks, 4)
}
