// Package config handles loading and validating the lighting scheduler configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading an optional .env file for local development
//   - Overriding with NEWMAR_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - The controller auth token and MQTT/InfluxDB credentials should be set via
//     environment variables rather than committed to the YAML file
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Controller.URL)
package config
