package controller

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{"timestamp", "temperature", "zone", "load", "price", "renewable", "netLoad", "batterySOC", "batteryMode", "cash"}

// ExportCSV serialises the tick log, one row per zone per tick.
func (c *Controller) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteCSV writes the tick log to `w` in the ExportCSV format. Battery state of charge is in MWh.
func (c *Controller) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range c.tickLog {
		for _, z := range r.Zones {
			row := []string{
				r.Time.Format(time.RFC3339),
				formatFloat(r.Temperature),
				z.ZoneID,
				formatFloat(z.Load),
				formatFloat(z.Price),
				formatFloat(z.Renewable),
				formatFloat(z.NetLoad),
				formatFloat(r.Battery.SocMWh),
				r.Battery.Mode,
				formatFloat(r.Cash),
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("write csv row for tick %d: %w", r.Tick, err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
