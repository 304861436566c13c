package modbusaccess

import (
	"fmt"

	"github.com/grid-x/modbus"
)

// WriteRegister writes the given value to the given modbus register
func WriteRegister(client modbus.Client, register Register, val interface{}) error {

	bytes, err := register.DataType.Encode(val)
	if err != nil {
		return fmt.Errorf("encode register %d: %w", register.StartAddr, err)
	}
	_, err = client.WriteMultipleRegisters(register.StartAddr, register.DataType.NumRegisters(), bytes)
	if err != nil {
		return fmt.Errorf("write register %d: %w", register.StartAddr, err)
	}

	return nil
}
