// Package influxdb writes the LED coordinator's operational telemetry to
// InfluxDB v2: commands sent (and whether the broker accepted them),
// reports received and group id allocation contention.
//
// Device state history is not recorded; the key-value store keeps only the
// last known state.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	controller.SetMetrics(client)
package influxdb
