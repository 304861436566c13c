package repository

import (
	"strings"
	"time"

	"github.com/cepro/gridsim/kpi"
	"github.com/cepro/gridsim/telemetry"
	"github.com/google/uuid"
)

// StoredRun is the summary of a completed run that is persisted to the SQLite database, and includes a count of
// upload attempts.
type StoredRun struct {
	ID             uuid.UUID
	Region         string
	Seed           int64
	Start          time.Time
	End            time.Time
	Ticks          int
	Score          float64
	Reliability    float64
	CostScore      float64
	EmissionsScore float64
	UnmetMWh       float64
	AveragePrice   float64
	Cash           float64
	Emissions      float64
	CongestedTicks int
	Badges         string // comma separated
	CreatedAt      time.Time

	UploadAttemptCount uint
}

// StoredTick is one zone of one tick of an archived run.
type StoredTick struct {
	ID          uuid.UUID
	RunID       uuid.UUID `gorm:"index"`
	Tick        int
	Time        time.Time
	ZoneID      string
	Temperature float64
	Load        float64
	Price       float64
	Renewable   float64
	NetLoad     float64
	Unmet       float64
	Congested   bool
	BatterySoc  float64 // MWh
	BatteryMode string
	Cash        float64
}

// RunSummary identifies a run for archiving.
type RunSummary struct {
	ID     uuid.UUID
	Region string
	Seed   int64
	Start  time.Time
	End    time.Time
}

// NewStoredRun flattens a completed run into its stored summary and one stored row per zone per tick.
func NewStoredRun(summary RunSummary, card kpi.Scorecard, records []telemetry.TickRecord) (StoredRun, []StoredTick) {
	run := StoredRun{
		ID:             summary.ID,
		Region:         summary.Region,
		Seed:           summary.Seed,
		Start:          summary.Start,
		End:            summary.End,
		Ticks:          len(records),
		Score:          card.Score,
		Reliability:    card.Reliability,
		CostScore:      card.CostScore,
		EmissionsScore: card.Emissions,
		UnmetMWh:       card.Totals.UnmetMWh,
		AveragePrice:   card.Totals.AveragePrice(),
		Cash:           card.Totals.Cash,
		Emissions:      card.Totals.Emissions,
		CongestedTicks: card.Totals.CongestedTicks,
		Badges:         strings.Join(card.Badges, ","),
	}

	var ticks []StoredTick
	for _, r := range records {
		for _, z := range r.Zones {
			ticks = append(ticks, StoredTick{
				ID:          uuid.New(),
				RunID:       summary.ID,
				Tick:        r.Tick,
				Time:        r.Time,
				ZoneID:      z.ZoneID,
				Temperature: r.Temperature,
				Load:        z.Load,
				Price:       z.Price,
				Renewable:   z.Renewable,
				NetLoad:     z.NetLoad,
				Unmet:       z.Unmet,
				Congested:   z.Congested,
				BatterySoc:  r.Battery.SocMWh,
				BatteryMode: r.Battery.Mode,
				Cash:        r.Cash,
			})
		}
	}
	return run, ticks
}
