// Package utils offers helpers for reading the agent configuration from the environment
package utils

import (
	"os"
	"strconv"
	"time"
)

// GetBooleanEnvVar returns a boolean environment variable.
// If variable is not set or invalid value, returns the default value
func GetBooleanEnvVar(envVar string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// GetStringEnvVar returns a string environment variable.
// If variable is not set returns the default value
func GetStringEnvVar(envVar string, defaultValue string) string {
	name := os.Getenv(envVar)
	if name == "" {
		return defaultValue
	}
	return name
}

// GetDurationEnvVar returns a duration environment variable (e.g. "30s").
// If variable is not set or invalid value, returns the default value
func GetDurationEnvVar(envVar string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return value
}

// Hostname returns the name of the host, or the default value if it cannot be determined
func Hostname(defaultValue string) string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return defaultValue
	}
	return name
}
