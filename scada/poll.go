package scada

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cepro/gridsim/battery"
	gridmodbus "github.com/cepro/gridsim/modbus"
	"github.com/cepro/gridsim/modbusaccess"
	"github.com/grid-x/modbus"
	"github.com/mitchellh/mapstructure"
)

type ZoneValues struct {
	Load      float64
	Price     float64
	Renewable float64
	NetLoad   float64
	Unmet     float64
}

type LinkValues struct {
	Flow  float64
	Limit float64
}

// Reading is the register map as seen by a SCADA client.
type Reading struct {
	Tick         int
	Phase        string
	Temperature  float64
	WindSpeed    float64
	Solar        float64
	BatterySoc   float64 // MWh
	BatteryPower float64 // MW, positive when discharging
	BatteryMode  string
	Cash         float64
	UnmetMWh     float64
	AveragePrice float64
	Reserve      float64

	Zones []ZoneValues
	Links []LinkValues
}

// Poll reads the whole register map from `client`. Values are float32 on the wire, so they compare with the
// engine's float64 values only to single precision.
func Poll(client modbus.Client) (Reading, error) {
	metrics, err := modbusaccess.PollBlocks(client, nil, Blocks())
	if err != nil {
		return Reading{}, err
	}

	nested, err := nest(metrics)
	if err != nil {
		return Reading{}, err
	}

	var reading Reading
	err = mapstructure.Decode(nested, &reading)
	if err != nil {
		return Reading{}, fmt.Errorf("decode metric map: %w", err)
	}

	return reading, nil
}

// nest gathers metrics named "<Group>.<index>.<Field>" into a slice of maps under "<Group>".
func nest(metrics map[string]interface{}) (map[string]interface{}, error) {
	nested := make(map[string]interface{}, len(metrics))
	groups := make(map[string][]map[string]interface{})

	for key, val := range metrics {
		parts := strings.SplitN(key, ".", 3)
		if len(parts) != 3 {
			nested[key] = val
			continue
		}
		index, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse index of '%s': %w", key, err)
		}
		group := groups[parts[0]]
		for len(group) <= index {
			group = append(group, make(map[string]interface{}))
		}
		group[index][parts[2]] = val
		groups[parts[0]] = group
	}

	for name, group := range groups {
		nested[name] = group
	}
	return nested, nil
}

// SendBatteryMode writes a battery setting to the command register.
func SendBatteryMode(client *gridmodbus.Client, setting battery.Setting) error {
	code, ok := SettingCode(setting)
	if !ok {
		return fmt.Errorf("unknown battery setting '%s'", setting)
	}
	return client.WriteRegister(CommandBatteryModeAddr, code)
}

// SendToggleUnit asks the server to toggle the unit at the zero-based `index` of the scenario's unit list.
func SendToggleUnit(client *gridmodbus.Client, index int) error {
	if index < 0 || index >= 0xffff {
		return fmt.Errorf("unit index %d out of range", index)
	}
	return client.WriteRegister(CommandToggleUnitAddr, uint16(index+1))
}
