package script

import (
	"fmt"
	"log/slog"

	"github.com/cepro/gridsim/controller"
	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/kpi"
)

// Runner applies a script to a run as it is stepped. It remembers the command state captured by each toggle so
// that a later "restore" can undo it.
type Runner struct {
	script *Script
	ctrl   *controller.Controller
	undo   map[string]dispatch.Command
	logger *slog.Logger
}

func NewRunner(ctrl *controller.Controller, s *Script) *Runner {
	return &Runner{
		script: s,
		ctrl:   ctrl,
		undo:   make(map[string]dispatch.Command),
		logger: slog.Default().With("run_id", ctrl.RunID()),
	}
}

// Apply performs the actions scheduled for the controller's next tick. Rejected actions are logged and
// returned; they do not stop the run.
func (r *Runner) Apply() []controller.ActionResult {
	tick := r.ctrl.Tick()
	var results []controller.ActionResult

	for _, a := range r.script.At(tick) {
		result := r.apply(a)
		if !result.OK {
			r.logger.Warn("Scripted action rejected", "tick", tick, "action", a.Kind, "unit", a.Unit, "reason", result.Reason)
		} else {
			r.logger.Debug("Applied scripted action", "tick", tick, "action", a.Kind, "unit", a.Unit)
		}
		results = append(results, result)
	}
	return results
}

func (r *Runner) apply(a Action) controller.ActionResult {
	switch a.Kind {
	case KindToggle:
		result, previous := r.ctrl.ToggleUnit(a.Unit)
		if result.OK {
			r.undo[a.Unit] = previous
		}
		return result

	case KindRestore:
		previous, ok := r.undo[a.Unit]
		if !ok {
			return controller.ActionResult{Reason: fmt.Sprintf("no toggle of '%s' to undo", a.Unit)}
		}
		result := r.ctrl.RestoreUnitState(a.Unit, previous)
		if result.OK {
			delete(r.undo, a.Unit)
		}
		return result

	case KindBattery:
		return r.ctrl.SetBatteryMode(a.Mode)

	case KindOverrides:
		o, err := DecodeOverrides(a.Overrides)
		if err != nil {
			return controller.ActionResult{Reason: err.Error()}
		}
		r.ctrl.ApplyOverrides(o)
		return controller.ActionResult{OK: true}
	}
	return controller.ActionResult{Reason: fmt.Sprintf("unknown action '%s'", a.Kind)}
}

// Run starts the run with `contract` if it has not started, resumes it if paused, then steps it to completion
// applying the script before each tick.
func Run(ctrl *controller.Controller, s *Script, contract kpi.Contract) (kpi.Scorecard, error) {
	if ctrl.Phase() == controller.PhasePreRun {
		if err := ctrl.StartRun(contract); err != nil {
			return kpi.Scorecard{}, fmt.Errorf("start scripted run: %w", err)
		}
	}

	ctrl.Resume()

	runner := NewRunner(ctrl, s)
	for ctrl.Phase() == controller.PhaseRunning {
		runner.Apply()
		ctrl.Step()
	}
	return ctrl.ComputeScore(), nil
}
