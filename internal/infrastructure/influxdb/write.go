package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the coordinator.
const (
	MeasurementCommands    = "led_commands"
	MeasurementReports     = "led_reports"
	MeasurementAllocations = "group_allocations"
)

// RecordCommand counts one outbound device command.
// kind is "simple" or "blink".
func (c *Client) RecordCommand(deviceID, kind string, delivered bool) {
	c.writePoint(commandPoint(deviceID, kind, delivered, time.Now()))
}

// RecordReport counts one inbound device report, accepted or dropped.
func (c *Client) RecordReport(kind string, accepted bool) {
	c.writePoint(reportPoint(kind, accepted, time.Now()))
}

// RecordAllocation records how many optimistic attempts a group id took.
func (c *Client) RecordAllocation(attempts int) {
	c.writePoint(allocationPoint(attempts, time.Now()))
}

func (c *Client) writePoint(p *write.Point) {
	if c == nil || !c.IsConnected() {
		return
	}
	c.writer.WritePoint(p)
}

func commandPoint(deviceID, kind string, delivered bool, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementCommands,
		map[string]string{
			"device_id": deviceID,
			"kind":      kind,
		},
		map[string]interface{}{
			"count":     1,
			"delivered": delivered,
		},
		ts,
	)
}

func reportPoint(kind string, accepted bool, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementReports,
		map[string]string{"kind": kind},
		map[string]interface{}{
			"count":    1,
			"accepted": accepted,
		},
		ts,
	)
}

func allocationPoint(attempts int, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementAllocations,
		nil,
		map[string]interface{}{"attempts": attempts},
		ts,
	)
}
