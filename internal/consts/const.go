// Package consts provide constants used by other packages to ensure consistency.
// Some of these constants are defined as variables to allow the value to be set at build time
package consts

// Version contains the current semantic version of the agent.
// The value is set when building the binary
var Version = "" //nolint:gochecknoglobals

// AgentVersion returns the version of the agent, or "devel" for builds without version
func AgentVersion() string {
	if Version == "" {
		return "devel"
	}

	return Version
}
