package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/cepro/gridsim/battery"
	"github.com/cepro/gridsim/config"
	"github.com/cepro/gridsim/controller"
	dataplatform "github.com/cepro/gridsim/data_platform"
	"github.com/cepro/gridsim/kpi"
	gridmodbus "github.com/cepro/gridsim/modbus"
	"github.com/cepro/gridsim/modbusaccess"
	"github.com/cepro/gridsim/repository"
	"github.com/cepro/gridsim/scada"
	"github.com/cepro/gridsim/scenario"
	"github.com/cepro/gridsim/script"
	"github.com/cepro/gridsim/supabase"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

const pollTimeout = 2 * time.Second

func runHeadless(cfg config.Config, scenarioPath, scriptPath, csvPath string, archive bool, contract contractFlags) error {
	scn, err := scenario.Read(scenarioPath)
	if err != nil {
		return err
	}
	ctrl, err := controller.New(scn)
	if err != nil {
		return err
	}

	s := &script.Script{}
	if scriptPath != "" {
		s, err = script.Read(scriptPath)
		if err != nil {
			return err
		}
	}

	card, err := script.Run(ctrl, s, contract.contract(ctrl.DefaultContract()))
	if err != nil {
		return err
	}
	printScorecard(os.Stdout, ctrl, card)

	if csvPath != "" {
		if err := writeCSV(ctrl, csvPath); err != nil {
			return err
		}
		slog.Info("Wrote tick log", "path", csvPath, "ticks", ctrl.Tick())
	}

	if archive {
		if err := archiveRun(cfg, ctrl, card); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(ctrl *controller.Controller, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	if err := ctrl.WriteCSV(f); err != nil {
		return err
	}
	return f.Close()
}

func archiveRun(cfg config.Config, ctrl *controller.Controller, card kpi.Scorecard) error {
	repo, err := repository.New(cfg.DataPlatform.ArchivePath)
	if err != nil {
		return err
	}

	scn := ctrl.Scenario()
	horizon := ctrl.Clock().Horizon()
	summary := repository.RunSummary{
		ID:     ctrl.RunID(),
		Region: scn.Meta.Region,
		Seed:   scn.Meta.SeedValue(),
		Start:  horizon.Start,
		End:    horizon.End,
	}
	run, ticks := repository.NewStoredRun(summary, card, ctrl.TickLog())

	id, err := dataplatform.Archive(repo, run, ticks)
	if err != nil {
		return err
	}
	slog.Info("Archived run", "run_id", id, "path", cfg.DataPlatform.ArchivePath, "rows", len(ticks))
	return nil
}

func runValidate(w io.Writer, scenarioPath string) error {
	scn, err := scenario.Read(scenarioPath)
	if err != nil {
		var validationErr *scenario.ValidationError
		if errors.As(err, &validationErr) {
			for _, field := range validationErr.Missing {
				fmt.Fprintf(w, "missing: %s\n", field)
			}
		}
		return err
	}
	if err := scenario.CheckTopology(scn); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: ok (%d zones, %d links, %d thermal units)\n", scenarioPath, len(scn.Zones), len(scn.Transmission), len(scn.ThermalUnits))
	return nil
}

func runServe(cfg config.Config, scenarioPath string, contract contractFlags) error {
	scn, err := scenario.Read(scenarioPath)
	if err != nil {
		return err
	}
	ctrl, err := controller.New(scn)
	if err != nil {
		return err
	}

	unitIDs := make([]string, 0, len(scn.ThermalUnits))
	for _, u := range scn.ThermalUnits {
		unitIDs = append(unitIDs, u.ID)
	}
	server, err := scada.NewServer(cfg.Scada.ListenAddr, cfg.Scada.MaxClients, unitIDs)
	if err != nil {
		return err
	}
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := ctrl.StartRun(contract.contract(ctrl.DefaultContract())); err != nil {
		return err
	}
	server.Publish(ctrl.CurrentSnapshot())

	ticker := time.NewTicker(cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Exiting", "tick", ctrl.Tick(), "phase", ctrl.Phase())
			return nil
		case <-ticker.C:
			for _, cmd := range server.DrainCommands() {
				if result := cmd.Apply(ctrl); !result.OK {
					slog.Warn("SCADA command rejected", "command", cmd, "reason", result.Reason)
				}
			}

			wasRunning := ctrl.Phase() == controller.PhaseRunning
			snapshot := ctrl.Step()
			server.Publish(snapshot)
			if snapshot.LastEvent != nil && snapshot.LastEvent.Tick == snapshot.Tick-1 {
				slog.Debug("Latest event", "time", snapshot.TimeLabel, "message", snapshot.LastEvent.Message)
			}

			if wasRunning && snapshot.Phase == controller.PhaseDone {
				card := ctrl.ComputeScore()
				printScorecard(os.Stdout, ctrl, card)
				if cfg.Serve.Archive {
					if err := archiveRun(cfg, ctrl, card); err != nil {
						slog.Error("Failed to archive run", "error", err)
					}
				}
				slog.Info("Run finished, serving final state until interrupted")
			}
		}
	}
}

func runUpload(cfg config.Config, loop bool) error {
	if cfg.DataPlatform.Supabase.Url == "" {
		return fmt.Errorf("no data platform url configured")
	}
	client, err := supabase.New(cfg.DataPlatform.Supabase.Url, config.SupabaseKey(), "", cfg.DataPlatform.Supabase.Schema)
	if err != nil {
		return err
	}
	repo, err := repository.New(cfg.DataPlatform.ArchivePath)
	if err != nil {
		return err
	}
	platform := dataplatform.New(client, repo)

	if !loop {
		uploaded := platform.AttemptUpload()
		slog.Info("Upload attempt complete", "uploaded_runs", uploaded)
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	platform.Run(ctx, cfg.UploadInterval())
	return nil
}

func runPoll(w io.Writer, addr, batteryMode string, toggleUnit int) error {
	if batteryMode != "" || toggleUnit >= 0 {
		client := gridmodbus.NewClient(addr, pollTimeout)
		defer client.Close()

		if batteryMode != "" {
			if err := scada.SendBatteryMode(client, battery.Setting(batteryMode)); err != nil {
				return err
			}
		}
		if toggleUnit >= 0 {
			if err := scada.SendToggleUnit(client, toggleUnit); err != nil {
				return err
			}
		}
	}

	client, closer, err := modbusaccess.Connect(addr, pollTimeout)
	if err != nil {
		return err
	}
	defer closer.Close()

	reading, err := scada.Poll(client)
	if err != nil {
		return err
	}
	printReading(w, reading)
	return nil
}

func runExample(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(scenario.Example()); err != nil {
		return fmt.Errorf("encode example scenario: %w", err)
	}
	return encoder.Close()
}

func printScorecard(w io.Writer, ctrl *controller.Controller, card kpi.Scorecard) {
	t := card.Totals
	fmt.Fprintf(w, "Run %s (%d ticks)\n", ctrl.RunID(), ctrl.Tick())
	fmt.Fprintf(w, "  Score:         %s / 100\n", humanize.FormatFloat("#,###.#", card.Score*100))
	fmt.Fprintf(w, "  Reliability:   %s%%\n", humanize.FormatFloat("#,###.##", card.Reliability*100))
	fmt.Fprintf(w, "  Cost score:    %s\n", humanize.FormatFloat("#,###.###", card.CostScore))
	fmt.Fprintf(w, "  Emissions:     %s\n", humanize.FormatFloat("#,###.###", card.Emissions))
	fmt.Fprintf(w, "  Unserved:      %s MWh\n", humanize.CommafWithDigits(t.UnmetMWh, 1))
	fmt.Fprintf(w, "  Average price: %s\n", humanize.FormatFloat("#,###.##", t.AveragePrice()))
	fmt.Fprintf(w, "  Cash:          %s\n", humanize.FormatFloat("#,###.", t.Cash))
	fmt.Fprintf(w, "  CO2:           %s t\n", humanize.CommafWithDigits(t.Emissions, 1))
	fmt.Fprintf(w, "  Congested:     %d ticks\n", t.CongestedTicks)
	if len(card.Badges) > 0 {
		fmt.Fprintf(w, "  Badges:        %s\n", strings.Join(card.Badges, ", "))
	}
}

func printReading(w io.Writer, r scada.Reading) {
	fmt.Fprintf(w, "tick %d (%s)  temperature %.1f  wind %.1f  solar %.2f\n", r.Tick, r.Phase, r.Temperature, r.WindSpeed, r.Solar)
	fmt.Fprintf(w, "battery %s  %.1f MW  %.1f MWh\n", r.BatteryMode, r.BatteryPower, r.BatterySoc)
	for i, z := range r.Zones {
		fmt.Fprintf(w, "zone %d  load %.1f  price %.2f  renewable %.1f  net %.1f  unmet %.1f\n", i, z.Load, z.Price, z.Renewable, z.NetLoad, z.Unmet)
	}
	for i, l := range r.Links {
		fmt.Fprintf(w, "link %d  flow %.1f / %.1f\n", i, l.Flow, l.Limit)
	}
	fmt.Fprintf(w, "cash %s  unserved %s MWh  average price %.2f  reserve %.1f MW\n",
		humanize.FormatFloat("#,###.", r.Cash), humanize.CommafWithDigits(r.UnmetMWh, 1), r.AveragePrice, r.Reserve)
}
