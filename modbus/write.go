package modbus

import (
	"fmt"

	"github.com/simonvetter/modbus"
)

// WriteRegister writes a single holding register.
func (c *Client) WriteRegister(addr uint16, val uint16) error {

	err := c.reconnectIfNeccesary()
	if err != nil {
		return fmt.Errorf("reconnect: %w", err)
	}

	err = c.subClient.WriteRegister(addr, val)
	if err != nil {
		c.setShouldReconnect()
		return fmt.Errorf("write register %d: %w", addr, err)
	}

	return nil
}

// ReadRegisters reads `quantity` holding registers starting at `addr`.
func (c *Client) ReadRegisters(addr uint16, quantity uint16) ([]uint16, error) {

	err := c.reconnectIfNeccesary()
	if err != nil {
		return nil, fmt.Errorf("reconnect: %w", err)
	}

	vals, err := c.subClient.ReadRegisters(addr, quantity, modbus.HOLDING_REGISTER)
	if err != nil {
		c.setShouldReconnect()
		return nil, fmt.Errorf("read registers %d: %w", addr, err)
	}

	return vals, nil
}
