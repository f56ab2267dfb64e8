// Package config defines the filegate configuration.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of required and mutually dependent settings
//   - sanitize.go: Masking of secrets for logging
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and FILEGATE_SECTION__KEY environment variables.
package config
