// Package config handles configuration loading for wagate.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion. The package provides validation and sensible defaults.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	whatsapp:
//	  access_token: "${WHATSAPP_TOKEN}"
//
// Syntax: ${VAR_NAME}. Unset variables expand to the empty string, which
// fails validation for required fields.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	completion:
//	  timeout: "30s"
//
// # Overrides
//
// WAGATE_DB_PATH overrides database.path, and system_prompt_file replaces
// the inline system_prompt when both are set.
package config
