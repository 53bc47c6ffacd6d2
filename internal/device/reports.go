package device

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Report kinds, named after the final topic segment.
const (
	ReportState    = "state"
	ReportAnnounce = "add"
)

// Report is a decoded inbound device message.
type Report struct {
	Kind     string
	DeviceID DeviceID
	State    State
}

// stateReport is the leds/<id>/state payload. The three blink fields come
// together or not at all.
type stateReport struct {
	ID         *DeviceID `json:"id"`
	State      *string   `json:"state"`
	Infinite   *flexBool `json:"infinite"`
	BlinkCount *int      `json:"blinkCount"`
	BlinkDelay *float64  `json:"blinkDelay"`
}

type announceReport struct {
	UUID *DeviceID `json:"uuid"`
	ID   *DeviceID `json:"id"`
}

// DecodeReport dispatches on the final topic segment and validates the payload.
func DecodeReport(topic string, payload []byte) (Report, error) {
	parts := strings.Split(topic, "/")
	switch kind := parts[len(parts)-1]; kind {
	case ReportState:
		return decodeStateReport(parts, payload)
	case ReportAnnounce:
		return decodeAnnounce(payload)
	default:
		return Report{}, fmt.Errorf("%w: %q", ErrUnrecognisedMessage, kind)
	}
}

func decodeStateReport(parts []string, payload []byte) (Report, error) {
	var msg stateReport
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}
	if msg.State == nil {
		return Report{}, fmt.Errorf("%w: state is required", ErrInvalidReport)
	}

	var id DeviceID
	switch {
	case msg.ID != nil:
		id = *msg.ID
	case len(parts) == 3:
		id = DeviceID(parts[1])
	}
	if !id.Valid() {
		return Report{}, fmt.Errorf("%w: device id %q is empty or not a topic segment", ErrInvalidReport, id)
	}

	present := 0
	for _, p := range []bool{msg.Infinite != nil, msg.BlinkCount != nil, msg.BlinkDelay != nil} {
		if p {
			present++
		}
	}

	var state State
	switch present {
	case 3:
		state = BlinkingState{
			Infinite: bool(*msg.Infinite),
			Delay:    *msg.BlinkDelay,
			Count:    *msg.BlinkCount,
		}
	case 0:
		sw := Switch(*msg.State)
		if !sw.Valid() {
			return Report{}, fmt.Errorf("%w: state %q", ErrInvalidReport, *msg.State)
		}
		state = SimpleState{State: sw}
	default:
		return Report{}, fmt.Errorf("%w: partial blink fields", ErrInvalidReport)
	}

	return Report{Kind: ReportState, DeviceID: id, State: state}, nil
}

func decodeAnnounce(payload []byte) (Report, error) {
	var msg announceReport
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrInvalidReport, err)
	}

	var id DeviceID
	switch {
	case msg.UUID != nil:
		id = *msg.UUID
	case msg.ID != nil:
		id = *msg.ID
	}
	if id == "" {
		return Report{}, fmt.Errorf("%w: announce without uuid", ErrInvalidReport)
	}
	if !id.Valid() {
		return Report{}, fmt.Errorf("%w: uuid %q is not a topic segment", ErrInvalidReport, id)
	}
	return Report{Kind: ReportAnnounce, DeviceID: id, State: DefaultState()}, nil
}

// HandleMessage is the MQTT handler for leds/+/state and leds/manage/add.
// A decoded report overwrites the device's stored state unconditionally.
// Decode errors are returned for the MQTT client to log; the message is
// dropped.
func (c *Controller) HandleMessage(topic string, payload []byte) error {
	report, err := DecodeReport(topic, payload)
	if err != nil {
		c.metrics.RecordReport(lastSegment(topic), false)
		return err
	}

	ctx := context.Background()
	if err := c.putState(ctx, report.DeviceID, report.State); err != nil {
		c.metrics.RecordReport(report.Kind, false)
		return fmt.Errorf("storing %s report for %s: %w", report.Kind, report.DeviceID, err)
	}

	c.metrics.RecordReport(report.Kind, true)
	c.notifier.DeviceStateChanged(report.DeviceID, report.State)
	c.logger.Debug("device report stored",
		"device_id", report.DeviceID,
		"kind", report.Kind,
		"state", report.State.Kind(),
	)
	return nil
}

func lastSegment(topic string) string {
	return topic[strings.LastIndex(topic, "/")+1:]
}
