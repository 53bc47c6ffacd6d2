// Package api implements the HTTP REST API and WebSocket relay for the LED
// coordinator.
//
// This package provides:
//   - REST endpoints for reading and controlling LEDs
//   - REST endpoints for group creation, membership and fan-out control
//   - WebSocket hub relaying every stored state change to subscribers
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Handlers are thin: they decode the request, call the device.Controller and
// map its sentinel errors onto HTTP status codes. The controller persists
// state, publishes commands over MQTT and notifies the Hub, which fans the
// change out to WebSocket clients subscribed to "device.state_changed".
//
// # Consistency
//
// A control whose MQTT publish fails still leaves the new state stored. Such
// requests answer 502 with code "command_not_delivered" so callers know the
// device may not have followed.
package api
