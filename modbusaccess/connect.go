package modbusaccess

import (
	"fmt"
	"io"
	"time"

	"github.com/grid-x/modbus"
)

// Connect opens a Modbus TCP connection to `host`. Close the returned closer when done with the client.
func Connect(host string, timeout time.Duration) (modbus.Client, io.Closer, error) {
	handler := modbus.NewTCPClientHandler(host)
	handler.Timeout = timeout

	if err := handler.Connect(); err != nil {
		return nil, nil, fmt.Errorf("connect to %s: %w", host, err)
	}
	return modbus.NewClient(handler), handler, nil
}
