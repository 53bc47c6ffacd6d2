// Package mqtt connects the LED coordinator to its MQTT broker.
//
// Outbound, the coordinator publishes device commands on
// leds/<id>/set_state_simple and leds/<id>/set_state. Inbound, it subscribes
// to leds/+/state (device state reports) and leds/manage/add (device
// announcements). The coordinator's own retained status and Last Will live on
// leds/manage/coordinator/status.
//
// Delivery is whatever the broker provides at the configured QoS; the client
// does not persist or retry messages itself.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllStateReports(), 1, controller.HandleMessage)
package mqtt
