// Package session ties one controller connection to its stores and
// engines.
//
// A Session owns the device registry, the correlation engine, the
// controller, discovery and the scene and schedule engines. It routes
// inbound frames to waiting requests, carries out schedule actions, and
// mirrors level changes and scene, schedule and discovery outcomes to MQTT
// and InfluxDB when those are configured.
package session
