package scada

import (
	"fmt"

	"github.com/cepro/gridsim/battery"
	"github.com/cepro/gridsim/controller"
	"github.com/cepro/gridsim/modbusaccess"
)

// The register map served to SCADA clients. All values are holding registers; the same values are also
// readable as input registers. Floats occupy two registers, big-endian.
const (
	statusStartAddr    = 0
	statusNumRegisters = 22

	zoneStartAddr    = 100
	zoneStride       = 10
	zoneNumRegisters = 10

	linkStartAddr    = 200
	linkStride       = 4
	linkNumRegisters = 4

	// CommandBatteryModeAddr accepts 1 (auto), 2 (charge) or 3 (discharge).
	CommandBatteryModeAddr = 300
	// CommandToggleUnitAddr accepts the one-based index of the unit to toggle.
	CommandToggleUnitAddr = 301

	memorySize = 302

	ZoneCount = 3
	LinkCount = 2
)

var phaseCodes = map[controller.Phase]uint16{
	controller.PhasePreRun:  0,
	controller.PhaseRunning: 1,
	controller.PhasePaused:  2,
	controller.PhaseDone:    3,
}

var modeCodes = map[string]uint16{
	string(battery.ModeIdle):      0,
	string(battery.ModeCharge):    1,
	string(battery.ModeDischarge): 2,
}

var settingCodes = map[uint16]battery.Setting{
	1: battery.SettingAuto,
	2: battery.SettingCharge,
	3: battery.SettingDischarge,
}

// SettingCode returns the command register value for a battery setting.
func SettingCode(setting battery.Setting) (uint16, bool) {
	for code, s := range settingCodes {
		if s == setting {
			return code, true
		}
	}
	return 0, false
}

func phaseName(_ modbusaccess.Scaler, val interface{}) interface{} {
	code := val.(uint16)
	for phase, c := range phaseCodes {
		if c == code {
			return string(phase)
		}
	}
	return fmt.Sprintf("unknown(%d)", code)
}

func modeName(_ modbusaccess.Scaler, val interface{}) interface{} {
	code := val.(uint16)
	for mode, c := range modeCodes {
		if c == code {
			return mode
		}
	}
	return fmt.Sprintf("unknown(%d)", code)
}

func toInt(_ modbusaccess.Scaler, val interface{}) interface{} {
	return int(val.(uint16))
}

var statusBlock = modbusaccess.RegisterBlock{
	Name:         "status",
	StartAddr:    statusStartAddr,
	NumRegisters: statusNumRegisters,
	Registers: map[string]modbusaccess.Register{
		"Tick":         {StartAddr: 0, DataType: modbusaccess.Uint16Type, ScalingFunc: toInt},
		"Phase":        {StartAddr: 1, DataType: modbusaccess.Uint16Type, ScalingFunc: phaseName},
		"Temperature":  {StartAddr: 2, DataType: modbusaccess.FloatType},
		"WindSpeed":    {StartAddr: 4, DataType: modbusaccess.FloatType},
		"Solar":        {StartAddr: 6, DataType: modbusaccess.FloatType},
		"BatterySoc":   {StartAddr: 8, DataType: modbusaccess.FloatType},
		"BatteryPower": {StartAddr: 10, DataType: modbusaccess.FloatType},
		"BatteryMode":  {StartAddr: 12, DataType: modbusaccess.Uint16Type, ScalingFunc: modeName},
		"Cash":         {StartAddr: 14, DataType: modbusaccess.FloatType},
		"UnmetMWh":     {StartAddr: 16, DataType: modbusaccess.FloatType},
		"AveragePrice": {StartAddr: 18, DataType: modbusaccess.FloatType},
		"Reserve":      {StartAddr: 20, DataType: modbusaccess.FloatType},
	},
}

// zoneBlock returns the registers of the i'th zone. Register names are prefixed with "Zones.<i>." so that the
// blocks of every zone can be polled into one map.
func zoneBlock(i int) modbusaccess.RegisterBlock {
	start := uint16(zoneStartAddr + zoneStride*i)
	prefix := fmt.Sprintf("Zones.%d.", i)
	return modbusaccess.RegisterBlock{
		Name:         fmt.Sprintf("zone %d", i),
		StartAddr:    start,
		NumRegisters: zoneNumRegisters,
		Registers: map[string]modbusaccess.Register{
			prefix + "Load":      {StartAddr: start, DataType: modbusaccess.FloatType},
			prefix + "Price":     {StartAddr: start + 2, DataType: modbusaccess.FloatType},
			prefix + "Renewable": {StartAddr: start + 4, DataType: modbusaccess.FloatType},
			prefix + "NetLoad":   {StartAddr: start + 6, DataType: modbusaccess.FloatType},
			prefix + "Unmet":     {StartAddr: start + 8, DataType: modbusaccess.FloatType},
		},
	}
}

func linkBlock(i int) modbusaccess.RegisterBlock {
	start := uint16(linkStartAddr + linkStride*i)
	prefix := fmt.Sprintf("Links.%d.", i)
	return modbusaccess.RegisterBlock{
		Name:         fmt.Sprintf("link %d", i),
		StartAddr:    start,
		NumRegisters: linkNumRegisters,
		Registers: map[string]modbusaccess.Register{
			prefix + "Flow":  {StartAddr: start, DataType: modbusaccess.FloatType},
			prefix + "Limit": {StartAddr: start + 2, DataType: modbusaccess.FloatType},
		},
	}
}

// Blocks returns every telemetry block of the register map, in address order.
func Blocks() []modbusaccess.RegisterBlock {
	blocks := []modbusaccess.RegisterBlock{statusBlock}
	for i := 0; i < ZoneCount; i++ {
		blocks = append(blocks, zoneBlock(i))
	}
	for i := 0; i < LinkCount; i++ {
		blocks = append(blocks, linkBlock(i))
	}
	return blocks
}
