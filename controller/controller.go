package controller

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cepro/gridsim/battery"
	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/kpi"
	"github.com/cepro/gridsim/rng"
	"github.com/cepro/gridsim/scenario"
	"github.com/cepro/gridsim/telemetry"
	timeutils "github.com/cepro/gridsim/time_utils"
	"github.com/cepro/gridsim/transmission"
	"github.com/cepro/gridsim/weather"
	"github.com/google/uuid"
)

// ErrInvalidTransition is returned when a lifecycle operation is not allowed in the current phase.
var ErrInvalidTransition = errors.New("invalid run transition")

// Phase is the lifecycle state of a run.
type Phase string

const (
	PhasePreRun  Phase = "pre-run"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
	PhaseDone    Phase = "done"
)

// priceHistoryLen is the number of most recent prices kept per zone for snapshots.
const priceHistoryLen = 24

// zoneState is the runtime mirror of a zone.
type zoneState struct {
	config scenario.Zone
	units  []*dispatch.Unit

	load      float64
	renewable float64
	netLoad   float64
	unmet     float64
	price     float64
	adder     float64
	congested bool

	priceHistory []float64
}

// Controller owns all runtime state of a simulation and advances it one tick at a time. It is not safe for
// concurrent use: callers that pace it from a timer must serialise access themselves.
//
// The scenario given to New is cloned, and every Reset rebuilds the runtime state from that private copy.
type Controller struct {
	scenario *scenario.Scenario
	logger   *slog.Logger

	runID uuid.UUID
	phase Phase
	clock timeutils.SimClock
	tick  int

	src     *rng.Source
	weather weather.Series

	zones   []*zoneState
	zoneIDs []string
	zoneMap map[string]*zoneState
	links   []*transmission.Link
	units   []*dispatch.Unit
	unitMap map[string]*dispatch.Unit
	battery *battery.Battery

	overrides Overrides
	totals    kpi.Totals
	contract  kpi.Contract
	prices    []float64 // every zonal price recorded so far

	stack              []dispatch.StackEntry
	reserve            float64
	reserveRequirement float64
	inShortfall        bool

	lastTemperature, lastWindSpeed, lastSolar float64

	events      []telemetry.Event
	nextEventID int
	tickLog     []telemetry.TickRecord
}

// New returns a controller for the given scenario, in the pre-run phase. The scenario must have all required
// fields and a valid topology; it is never modified.
func New(scn *scenario.Scenario) (*Controller, error) {
	if missing := scenario.Validate(scn); len(missing) > 0 {
		return nil, &scenario.ValidationError{Missing: missing}
	}
	if err := scenario.CheckTopology(scn); err != nil {
		return nil, fmt.Errorf("check scenario: %w", err)
	}

	c := &Controller{
		scenario: scn.Clone(),
		logger:   slog.Default().With("region", scn.Meta.Region),
	}
	c.Reset()
	return c, nil
}

// Reset discards all runtime state, rebuilds it from the scenario and reseeds the random source. The controller
// returns to the pre-run phase.
func (c *Controller) Reset() {
	scn := c.scenario

	c.runID = uuid.New()
	c.phase = PhasePreRun
	c.clock = timeutils.NewSimClock(scn.Clock.Start, scn.Clock.DurationHours, scn.Clock.TickMinutes)
	c.tick = 0

	// weather is drawn first so that outage draws always follow the full weather horizon
	c.src = rng.New(scn.Meta.SeedValue())
	c.weather = weather.Generate(*scn.Weather, c.clock, c.src)

	c.units = make([]*dispatch.Unit, 0, len(scn.ThermalUnits))
	c.unitMap = make(map[string]*dispatch.Unit, len(scn.ThermalUnits))
	for _, cfg := range scn.ThermalUnits {
		u := dispatch.NewUnit(cfg)
		c.units = append(c.units, u)
		c.unitMap[cfg.ID] = u
	}

	c.zones = make([]*zoneState, 0, len(scn.Zones))
	c.zoneIDs = make([]string, 0, len(scn.Zones))
	c.zoneMap = make(map[string]*zoneState, len(scn.Zones))
	for _, cfg := range scn.Zones {
		z := &zoneState{config: cfg}
		for _, u := range c.units {
			if u.Config.Zone == cfg.ID {
				z.units = append(z.units, u)
			}
		}
		c.zones = append(c.zones, z)
		c.zoneIDs = append(c.zoneIDs, cfg.ID)
		c.zoneMap[cfg.ID] = z
	}

	c.links = make([]*transmission.Link, 0, len(scn.Transmission))
	for _, cfg := range scn.Transmission {
		c.links = append(c.links, transmission.NewLink(cfg))
	}

	c.battery = battery.New(*scn.Battery)

	c.overrides = Overrides{}
	c.totals = kpi.Totals{}
	c.contract = c.DefaultContract()
	c.prices = nil
	c.stack = nil
	c.reserve = 0
	c.reserveRequirement = 0
	c.inShortfall = false
	c.lastTemperature, c.lastWindSpeed, c.lastSolar = 0, 0, 0
	c.events = nil
	c.nextEventID = 1
	c.tickLog = make([]telemetry.TickRecord, 0, c.clock.TotalTicks)

	c.logger.Info("Reset run", "run_id", c.runID, "seed", scn.Meta.SeedValue(), "ticks", c.clock.TotalTicks)
}

// DefaultContract returns a zero-quantity contract at the scenario's default day-ahead price.
func (c *Controller) DefaultContract() kpi.Contract {
	return kpi.Contract{Price: c.scenario.Meta.DayAheadDefaultPrice}
}

// StartRun fixes the day-ahead contract and starts the run. It fails unless the run is in the pre-run phase.
func (c *Controller) StartRun(contract kpi.Contract) error {
	if c.phase != PhasePreRun {
		return fmt.Errorf("start run: %w: run is %s", ErrInvalidTransition, c.phase)
	}
	contract.Settled = false
	contract.Amount = 0
	c.contract = contract
	c.phase = PhaseRunning
	c.logger.Info("Started run", "run_id", c.runID, "contract_quantity", contract.Quantity, "contract_price", contract.Price)
	return nil
}

// Pause stops a running run from advancing. It does nothing in any other phase.
func (c *Controller) Pause() {
	if c.phase != PhaseRunning {
		return
	}
	c.phase = PhasePaused
	c.logger.Info("Paused run", "run_id", c.runID, "tick", c.tick)
}

// CanResume returns true if the run has started, is not currently running and has not finished.
func (c *Controller) CanResume() bool {
	return c.phase == PhasePaused
}

// Resume continues a paused run. It does nothing if the run cannot be resumed.
func (c *Controller) Resume() {
	if !c.CanResume() {
		return
	}
	c.phase = PhaseRunning
	c.logger.Info("Resumed run", "run_id", c.runID, "tick", c.tick)
}

// RunHeadless drives the run to completion without external pacing and returns the final score. A run that
// has not started is started with the default contract and a paused run is resumed.
func (c *Controller) RunHeadless() (kpi.Scorecard, error) {
	if c.phase == PhasePreRun {
		if err := c.StartRun(c.DefaultContract()); err != nil {
			return kpi.Scorecard{}, err
		}
	}
	c.Resume()
	for c.phase == PhaseRunning {
		c.Step()
	}
	return c.ComputeScore(), nil
}

// ComputeScore scores the run so far. After the run is done this is the final scorecard.
func (c *Controller) ComputeScore() kpi.Scorecard {
	return kpi.ComputeScore(c.totals, c.scenario.Meta.ScoreWeights, c.battery.EnergyCapacity)
}

func (c *Controller) RunID() uuid.UUID {
	return c.runID
}

func (c *Controller) Phase() Phase {
	return c.phase
}

// Tick returns the index of the next tick to be simulated.
func (c *Controller) Tick() int {
	return c.tick
}

func (c *Controller) Clock() timeutils.SimClock {
	return c.clock
}

// Scenario returns a copy of the scenario the controller was built from.
func (c *Controller) Scenario() *scenario.Scenario {
	return c.scenario.Clone()
}

// Totals returns the KPI accumulators so far.
func (c *Controller) Totals() kpi.Totals {
	return c.totals
}

// Contract returns the day-ahead contract of the run.
func (c *Controller) Contract() kpi.Contract {
	return c.contract
}

// TickLog returns a copy of every completed tick record.
func (c *Controller) TickLog() []telemetry.TickRecord {
	records := make([]telemetry.TickRecord, len(c.tickLog))
	for i, r := range c.tickLog {
		records[i] = r.Clone()
	}
	return records
}

// Events returns a copy of the event log.
func (c *Controller) Events() []telemetry.Event {
	return append([]telemetry.Event(nil), c.events...)
}

// logEvent appends an operator-facing event, stamped with the current simulated time.
func (c *Controller) logEvent(message string) {
	event := telemetry.Event{
		ID:      c.nextEventID,
		Tick:    c.tick,
		Time:    c.clock.TimeAt(c.tick),
		Message: message,
	}
	c.nextEventID++
	c.events = append(c.events, event)
	c.logger.Debug("Engine event", "tick", event.Tick, "message", message)
}
