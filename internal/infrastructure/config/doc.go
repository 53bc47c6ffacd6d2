// Package config handles loading and validating LED coordinator configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with LEDCOORD_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Broker and store credentials should be supplied through the environment
// rather than committed to the config file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Store.Backend)
package config
