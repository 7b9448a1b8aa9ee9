// Package config provides configuration loading and validation for the capture service.
// It handles YAML-based configuration with struct validation and fills in the
// reference numeric defaults for silence detection.
package config
