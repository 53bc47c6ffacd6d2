// Package device coordinates the state of addressable LED devices and the
// groups they belong to.
//
// State lives in a key-value store (see package store):
//
//	device:<id>   {"state":"on"} or {"state":"blinking","blinkInfinite":true,"blinkDelay":5,"blinkCount":3}
//	group:<id>    {"id":3,"leds":["a","b"],...caller attributes}
//	nextGroupId   integer counter, absent means 0
//
// A Controller applies control intents (persist, read back, publish the
// matching command), fans intents out over groups, allocates group ids with
// an optimistic transaction on nextGroupId and stores inbound device reports.
//
// # Consistency
//
// Storing a state and publishing its command are two separate steps. When
// the publish fails the stored state stays ahead of the device and
// ApplyControl returns ErrCommandNotDelivered alongside the stored state.
// Device reports overwrite stored state unconditionally; the last writer wins.
//
// # Usage
//
//	ctrl := device.NewController(store.NewRedisStore(client), mqttClient, 1)
//	ctrl.SetLogger(log)
//
//	state, err := ctrl.ApplyControl(ctx, "42", device.SimpleIntent{Switch: device.SwitchOn})
//	group, err := ctrl.CreateGroup(ctx, device.Group{LEDs: []device.DeviceID{"42", "43"}})
package device
