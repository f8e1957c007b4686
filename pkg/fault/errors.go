package fault

import "fmt"

// ConfigurationError is returned when a fault spec is not valid. A fault is never
// built from a spec that fails with this error.
type ConfigurationError struct {
	// Node is the offending node, if the error concerns one
	Node   string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Node == "" {
		return "invalid fault spec: " + e.Reason
	}
	return fmt.Sprintf("invalid fault spec: node %q %s", e.Node, e.Reason)
}
