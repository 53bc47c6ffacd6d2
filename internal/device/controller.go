package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-leds/internal/store"
)

// Logger defines the logging interface used by the Controller.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher sends commands to devices. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Notifier is told about every state the controller stores, whether it came
// from a control request or a device report.
type Notifier interface {
	DeviceStateChanged(id DeviceID, state State)
}

// Metrics records operational counters. *influxdb.Client satisfies it.
type Metrics interface {
	RecordCommand(deviceID, kind string, delivered bool)
	RecordReport(kind string, accepted bool)
	RecordAllocation(attempts int)
}

type noopNotifier struct{}

func (noopNotifier) DeviceStateChanged(DeviceID, State) {}

type noopMetrics struct{}

func (noopMetrics) RecordCommand(string, string, bool) {}
func (noopMetrics) RecordReport(string, bool)          {}
func (noopMetrics) RecordAllocation(int)               {}

// Controller coordinates device and group state. It persists desired state
// in the store, publishes commands and reconciles device reports.
//
// The store's optimistic transaction is the only synchronisation used; the
// controller itself holds no locks and is safe for concurrent use.
type Controller struct {
	store     store.Store
	publisher Publisher
	qos       byte

	logger   Logger
	notifier Notifier
	metrics  Metrics
}

// NewController creates a controller publishing commands at the given QoS.
func NewController(s store.Store, publisher Publisher, qos byte) *Controller {
	return &Controller{
		store:     s,
		publisher: publisher,
		qos:       qos,
		logger:    noopLogger{},
		notifier:  noopNotifier{},
		metrics:   noopMetrics{},
	}
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.logger = logger
}

// SetNotifier sets the listener for stored state changes.
func (c *Controller) SetNotifier(n Notifier) {
	c.notifier = n
}

// SetMetrics sets the telemetry sink.
func (c *Controller) SetMetrics(m Metrics) {
	c.metrics = m
}

// ApplyControl stores the state intent maps to, then commands the device
// from the value read back after the write. The persisted state is returned
// even when publishing fails; in that case the error wraps
// ErrCommandNotDelivered and the store is not rolled back.
func (c *Controller) ApplyControl(ctx context.Context, id DeviceID, intent Intent) (State, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: device id %q is empty or not a topic segment", ErrInvalidIntent, id)
	}
	if intent == nil {
		return nil, fmt.Errorf("%w: no intent", ErrInvalidIntent)
	}

	if err := c.putState(ctx, id, intent.State()); err != nil {
		return nil, err
	}

	persisted, err := c.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reading back %s: %w", id, err)
	}

	cmd, err := EncodeCommand(id, persisted)
	if err != nil {
		return nil, err
	}

	if err := c.publisher.Publish(cmd.Topic, cmd.Payload, c.qos, false); err != nil {
		c.metrics.RecordCommand(string(id), persisted.Kind(), false)
		c.notifier.DeviceStateChanged(id, persisted)
		c.logger.Warn("command not delivered, stored state is ahead of device",
			"device_id", id,
			"topic", cmd.Topic,
			"error", err,
		)
		return persisted, fmt.Errorf("%w: %w", ErrCommandNotDelivered, err)
	}

	c.metrics.RecordCommand(string(id), persisted.Kind(), true)
	c.notifier.DeviceStateChanged(id, persisted)
	return persisted, nil
}

// Get returns a device's stored state.
func (c *Controller) Get(ctx context.Context, id DeviceID) (State, error) {
	raw, err := c.store.Get(ctx, DeviceKey(id))
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting device %s: %w", id, err)
	}
	return ParseState(raw)
}

// ControlResult is the outcome of one device control within a batch or a
// group fan-out. Err is nil on success.
type ControlResult struct {
	ID    DeviceID
	State State
	Err   error
}

// ApplyBatch applies every assignment in order. A failure on one device
// does not stop the rest.
func (c *Controller) ApplyBatch(ctx context.Context, batch []Assignment) []ControlResult {
	results := make([]ControlResult, 0, len(batch))
	for _, a := range batch {
		state, err := c.ApplyControl(ctx, a.ID, a.Intent)
		results = append(results, ControlResult{ID: a.ID, State: state, Err: err})
	}
	return results
}

// putState overwrites a device's stored state.
func (c *Controller) putState(ctx context.Context, id DeviceID, s State) error {
	body, err := MarshalState(s)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, DeviceKey(id), body); err != nil {
		return fmt.Errorf("storing device %s: %w", id, err)
	}
	return nil
}
