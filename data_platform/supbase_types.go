package dataplatform

import (
	"strings"
	"time"

	"github.com/cepro/gridsim/repository"
	"github.com/google/uuid"
)

const (
	runsTable  = "sim_runs"
	ticksTable = "sim_ticks"
)

// supabaseRun holds the json encoding schema for a run summary in supabase.
type supabaseRun struct {
	ID             uuid.UUID `json:"id"`
	Region         string    `json:"region"`
	Seed           int64     `json:"seed"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Ticks          int       `json:"ticks"`
	Score          float64   `json:"score"`
	Reliability    float64   `json:"reliability"`
	CostScore      float64   `json:"cost_score"`
	EmissionsScore float64   `json:"emissions_score"`
	UnmetMWh       float64   `json:"unmet_mwh"`
	AveragePrice   float64   `json:"average_price"`
	Cash           float64   `json:"cash"`
	Emissions      float64   `json:"emissions"`
	CongestedTicks int       `json:"congested_ticks"`
	Badges         []string  `json:"badges"`
}

// supabaseTick holds the json encoding schema for one zone of one tick in supabase.
type supabaseTick struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Tick        int       `json:"tick"`
	Time        time.Time `json:"time"`
	ZoneID      string    `json:"zone_id"`
	Temperature float64   `json:"temperature"`
	Load        float64   `json:"load"`
	Price       float64   `json:"price"`
	Renewable   float64   `json:"renewable"`
	NetLoad     float64   `json:"net_load"`
	Unmet       float64   `json:"unmet"`
	Congested   bool      `json:"congested"`
	BatterySoc  float64   `json:"battery_soc"`
	BatteryMode string    `json:"battery_mode"`
	Cash        float64   `json:"cash"`
}

func convertRun(run repository.StoredRun) supabaseRun {
	var badges []string
	if run.Badges != "" {
		badges = strings.Split(run.Badges, ",")
	}
	return supabaseRun{
		ID:             run.ID,
		Region:         run.Region,
		Seed:           run.Seed,
		Start:          run.Start,
		End:            run.End,
		Ticks:          run.Ticks,
		Score:          run.Score,
		Reliability:    run.Reliability,
		CostScore:      run.CostScore,
		EmissionsScore: run.EmissionsScore,
		UnmetMWh:       run.UnmetMWh,
		AveragePrice:   run.AveragePrice,
		Cash:           run.Cash,
		Emissions:      run.Emissions,
		CongestedTicks: run.CongestedTicks,
		Badges:         badges,
	}
}

func convertTicks(ticks []repository.StoredTick) []supabaseTick {
	var supabaseTicks []supabaseTick
	for _, tick := range ticks {
		supabaseTicks = append(supabaseTicks, supabaseTick(tick))
	}
	return supabaseTicks
}
