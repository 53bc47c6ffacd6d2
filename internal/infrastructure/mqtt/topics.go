package mqtt

import "fmt"

// TopicRoot is the first segment of every LED topic.
const TopicRoot = "leds"

// manageSegment groups coordinator-level topics under leds/manage/...
const manageSegment = "manage"

// Topics builds the LED protocol topics. Devices listen on their own
// set_state topics and report on leds/<id>/state; new devices announce
// themselves on leds/manage/add.
//
//	topic := mqtt.Topics{}.SetStateSimple("42")
//	// "leds/42/set_state_simple"
type Topics struct{}

// SetStateSimple is the command topic for on/off/toggle.
func (Topics) SetStateSimple(deviceID string) string {
	return fmt.Sprintf("%s/%s/set_state_simple", TopicRoot, deviceID)
}

// SetState is the command topic for parameterised (blink) states.
func (Topics) SetState(deviceID string) string {
	return fmt.Sprintf("%s/%s/set_state", TopicRoot, deviceID)
}

// DeviceState is the topic a device reports its actual state on.
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", TopicRoot, deviceID)
}

// AllStateReports matches every device's state report.
//
// Pattern: leds/+/state
func (Topics) AllStateReports() string {
	return fmt.Sprintf("%s/+/state", TopicRoot)
}

// DeviceAnnounce is where devices announce themselves when they come online.
func (Topics) DeviceAnnounce() string {
	return fmt.Sprintf("%s/%s/add", TopicRoot, manageSegment)
}

// CoordinatorStatus carries the coordinator's retained online/offline status
// and its Last Will.
func (Topics) CoordinatorStatus() string {
	return fmt.Sprintf("%s/%s/coordinator/status", TopicRoot, manageSegment)
}
