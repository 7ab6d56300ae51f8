// Package influxdb records lighting metrics in InfluxDB v2.
//
// Points are written through the non-blocking batch API: per-light levels,
// scene application counts, schedule firings and discovery outcomes. Batch
// size and flush interval come from the influxdb section of config.yaml.
// Asynchronous write failures are reported through SetOnError.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteLightLevel(12, "Galley", 80)
package influxdb
