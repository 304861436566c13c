// Package script replays operator actions against a run at fixed tick indices, so that interactive sessions can
// be reproduced headless.
package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/cepro/gridsim/controller"
)

// Kind names an operator action.
type Kind string

const (
	KindToggle    Kind = "toggle"    // toggle a unit's command
	KindRestore   Kind = "restore"   // undo the last toggle of a unit
	KindBattery   Kind = "battery"   // change the battery mode setting
	KindOverrides Kind = "overrides" // apply parameter overrides
)

// Action is one scripted operator action, applied before the tick with index `Tick` is simulated.
type Action struct {
	Tick      int            `json:"tick" yaml:"tick"`
	Kind      Kind           `json:"action" yaml:"action"`
	Unit      string         `json:"unit,omitempty" yaml:"unit,omitempty"`
	Mode      string         `json:"mode,omitempty" yaml:"mode,omitempty"`
	Overrides map[string]any `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

type Script struct {
	Actions []Action `json:"actions" yaml:"actions"`
}

// Read loads a script from a JSON or YAML file, chosen by extension, and validates it.
func Read(path string) (*Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script file: %w", err)
	}
	return Parse(content, filepath.Ext(path))
}

// Parse decodes and validates script content. The format is YAML for ".yaml"/".yml" and JSON otherwise.
func Parse(content []byte, ext string) (*Script, error) {
	var s Script
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &s); err != nil {
			return nil, fmt.Errorf("unmarshal yaml script: %w", err)
		}
	default:
		if err := json.Unmarshal(content, &s); err != nil {
			return nil, fmt.Errorf("unmarshal json script: %w", err)
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every action is well formed. It does not check unit IDs, which are only known to a run.
func (s *Script) Validate() error {
	for i, a := range s.Actions {
		if a.Tick < 0 {
			return fmt.Errorf("action %d: negative tick %d", i, a.Tick)
		}
		switch a.Kind {
		case KindToggle, KindRestore:
			if a.Unit == "" {
				return fmt.Errorf("action %d: %s needs a unit", i, a.Kind)
			}
		case KindBattery:
			if a.Mode == "" {
				return fmt.Errorf("action %d: battery needs a mode", i)
			}
		case KindOverrides:
			if _, err := DecodeOverrides(a.Overrides); err != nil {
				return fmt.Errorf("action %d: %w", i, err)
			}
		default:
			return fmt.Errorf("action %d: unknown action '%s'", i, a.Kind)
		}
	}
	return nil
}

// At returns the actions for the given tick, in script order.
func (s *Script) At(tick int) []Action {
	var actions []Action
	for _, a := range s.Actions {
		if a.Tick == tick {
			actions = append(actions, a)
		}
	}
	return actions
}

// LastTick returns the highest tick any action is scheduled for, or -1 for an empty script.
func (s *Script) LastTick() int {
	last := -1
	for _, a := range s.Actions {
		if a.Tick > last {
			last = a.Tick
		}
	}
	return last
}

// Sorted returns a copy of the script with its actions ordered by tick. Actions on the same tick keep their
// relative order.
func (s *Script) Sorted() *Script {
	actions := append([]Action(nil), s.Actions...)
	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Tick < actions[j].Tick
	})
	return &Script{Actions: actions}
}

// DecodeOverrides converts a loosely typed override map, e.g. {"gas": 80, "tx": 150}, into controller
// overrides. Unknown keys are an error.
func DecodeOverrides(m map[string]any) (controller.Overrides, error) {
	var o controller.Overrides
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &o,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return controller.Overrides{}, fmt.Errorf("create override decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return controller.Overrides{}, fmt.Errorf("decode overrides: %w", err)
	}
	return o, nil
}
