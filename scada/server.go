package scada

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/cepro/gridsim/battery"
	"github.com/cepro/gridsim/controller"
	"github.com/cepro/gridsim/modbusaccess"
	"github.com/simonvetter/modbus"
)

const clientTimeout = 30 * time.Second

// Command is an operator instruction received over Modbus. Exactly one of Setting and UnitID is set.
type Command struct {
	Setting battery.Setting
	UnitID  string
}

// Apply hands the command to the controller.
func (c Command) Apply(ctrl *controller.Controller) controller.ActionResult {
	if c.UnitID != "" {
		result, _ := ctrl.ToggleUnit(c.UnitID)
		return result
	}
	return ctrl.SetBatteryMode(string(c.Setting))
}

// Server serves the latest published snapshot as Modbus registers and queues writes to the command registers.
// It is safe for concurrent use: the Modbus library calls the handlers from one goroutine per client.
type Server struct {
	unitIDs []string
	server  *modbus.ModbusServer

	lock     sync.Mutex
	memory   [memorySize]uint16
	commands []Command

	logger *slog.Logger
}

// NewServer returns a server that will listen on `addr` once started. `unitIDs` are the thermal units in
// scenario order, addressed by one-based index through the toggle command register.
func NewServer(addr string, maxClients uint, unitIDs []string) (*Server, error) {
	s := &Server{
		unitIDs: append([]string(nil), unitIDs...),
		logger:  slog.Default().With("addr", addr),
	}

	server, err := modbus.NewServer(&modbus.ServerConfiguration{
		URL:        fmt.Sprintf("tcp://%s", addr),
		Timeout:    clientTimeout,
		MaxClients: maxClients,
	}, s)
	if err != nil {
		return nil, fmt.Errorf("create modbus server: %w", err)
	}
	s.server = server

	return s, nil
}

func (s *Server) Start() error {
	if err := s.server.Start(); err != nil {
		return fmt.Errorf("start modbus server: %w", err)
	}
	s.logger.Info("Started SCADA server")
	return nil
}

func (s *Server) Stop() error {
	if err := s.server.Stop(); err != nil {
		return fmt.Errorf("stop modbus server: %w", err)
	}
	s.logger.Info("Stopped SCADA server")
	return nil
}

// Publish replaces the telemetry registers with the values of `snapshot`. The command registers keep their
// last written values.
func (s *Server) Publish(snapshot controller.Snapshot) {
	var memory [memorySize]uint16

	status := map[string]interface{}{
		"Tick":         uint16(math.Min(float64(snapshot.Tick), math.MaxUint16)),
		"Phase":        phaseCodes[snapshot.Phase],
		"Temperature":  snapshot.Temperature,
		"WindSpeed":    snapshot.WindSpeed,
		"Solar":        snapshot.Solar,
		"BatterySoc":   snapshot.Battery.SocMWh,
		"BatteryPower": snapshot.Battery.PowerMW,
		"BatteryMode":  modeCodes[snapshot.Battery.Mode],
		"Cash":         snapshot.Totals.Cash,
		"UnmetMWh":     snapshot.Totals.UnmetMWh,
		"AveragePrice": snapshot.AveragePrice,
		"Reserve":      snapshot.Reserve,
	}
	if err := encodeBlock(memory[:], statusBlock, status); err != nil {
		s.logger.Warn("Failed to encode status registers", "error", err)
	}

	for i, zone := range snapshot.Zones {
		if i >= ZoneCount {
			break
		}
		prefix := fmt.Sprintf("Zones.%d.", i)
		values := map[string]interface{}{
			prefix + "Load":      zone.Load,
			prefix + "Price":     zone.Price,
			prefix + "Renewable": zone.Renewable,
			prefix + "NetLoad":   zone.NetLoad,
			prefix + "Unmet":     zone.Unmet,
		}
		if err := encodeBlock(memory[:], zoneBlock(i), values); err != nil {
			s.logger.Warn("Failed to encode zone registers", "zone", zone.ZoneID, "error", err)
		}
	}

	for i, link := range snapshot.Links {
		if i >= LinkCount {
			break
		}
		prefix := fmt.Sprintf("Links.%d.", i)
		values := map[string]interface{}{
			prefix + "Flow":  link.Flow,
			prefix + "Limit": link.Limit,
		}
		if err := encodeBlock(memory[:], linkBlock(i), values); err != nil {
			s.logger.Warn("Failed to encode link registers", "link", link.LinkID, "error", err)
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	copy(memory[CommandBatteryModeAddr:], s.memory[CommandBatteryModeAddr:])
	s.memory = memory
}

// DrainCommands returns the commands received since the last call, oldest first.
func (s *Server) DrainCommands() []Command {
	s.lock.Lock()
	defer s.lock.Unlock()

	commands := s.commands
	s.commands = nil
	return commands
}

// encodeBlock writes `values`, keyed by register name, into `memory`.
func encodeBlock(memory []uint16, block modbusaccess.RegisterBlock, values map[string]interface{}) error {
	for key, val := range values {
		register, ok := block.Registers[key]
		if !ok {
			return fmt.Errorf("no register '%s' in block '%s'", key, block.Name)
		}
		bytes, err := register.DataType.Encode(val)
		if err != nil {
			return fmt.Errorf("encode '%s': %w", key, err)
		}
		copy(memory[register.StartAddr:], modbusaccess.BytesToRegisters(bytes))
	}
	return nil
}

// command converts a write to a command register into a Command.
func (s *Server) command(addr, val uint16) (Command, error) {
	switch addr {
	case CommandBatteryModeAddr:
		setting, ok := settingCodes[val]
		if !ok {
			return Command{}, modbus.ErrIllegalDataValue
		}
		return Command{Setting: setting}, nil
	case CommandToggleUnitAddr:
		if val == 0 || int(val) > len(s.unitIDs) {
			return Command{}, modbus.ErrIllegalDataValue
		}
		return Command{UnitID: s.unitIDs[val-1]}, nil
	}
	return Command{}, modbus.ErrIllegalDataAddress
}

func (s *Server) HandleCoils(req *modbus.CoilsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

func (s *Server) HandleDiscreteInputs(req *modbus.DiscreteInputsRequest) ([]bool, error) {
	return nil, modbus.ErrIllegalFunction
}

// HandleHoldingRegisters serves reads of the whole register map. Writes are only accepted on the command
// registers and every written value must be valid before any of them is queued.
func (s *Server) HandleHoldingRegisters(req *modbus.HoldingRegistersRequest) ([]uint16, error) {
	end := int(req.Addr) + int(req.Quantity)
	if end > memorySize {
		return nil, modbus.ErrIllegalDataAddress
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if !req.IsWrite {
		return append([]uint16(nil), s.memory[req.Addr:end]...), nil
	}

	commands := make([]Command, 0, len(req.Args))
	for i, val := range req.Args {
		cmd, err := s.command(req.Addr+uint16(i), val)
		if err != nil {
			s.logger.Warn("Rejected SCADA write", "client", req.ClientAddr, "register", req.Addr+uint16(i), "value", val, "error", err)
			return nil, err
		}
		commands = append(commands, cmd)
	}

	copy(s.memory[req.Addr:], req.Args)
	s.commands = append(s.commands, commands...)
	s.logger.Info("Queued SCADA commands", "client", req.ClientAddr, "count", len(commands))

	return req.Args, nil
}

// HandleInputRegisters serves the same values as the holding registers, read-only.
func (s *Server) HandleInputRegisters(req *modbus.InputRegistersRequest) ([]uint16, error) {
	end := int(req.Addr) + int(req.Quantity)
	if end > memorySize {
		return nil, modbus.ErrIllegalDataAddress
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]uint16(nil), s.memory[req.Addr:end]...), nil
}
