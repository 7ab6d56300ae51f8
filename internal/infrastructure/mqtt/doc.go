// Package mqtt connects the lighting scheduler to an MQTT broker.
//
// Outbound, it publishes retained per-light levels and one-shot events for
// scene loads, schedule firings and discovery passes. Inbound, it accepts
// scene and all-on/all-off commands on newmar/command/#.
//
// A Last Will on newmar/system/status lets subscribers see an unexpected
// disconnect. Reconnection uses paho's built-in back-off and restores every
// tracked subscription.
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.LightState(12), state, true)
package mqtt
