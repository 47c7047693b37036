package domain

import "fmt"

// ConfigurationError means a required credential or setting is missing at
// startup. Nothing runs after it.
type ConfigurationError struct {
	Var string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s is not set", e.Var)
}

// ClientError wraps a failed language-model call. It aborts the run in
// progress; updates already emitted stay valid.
type ClientError struct {
	Provider string
	Err      error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("llm client %s: %v", e.Provider, e.Err)
}

func (e *ClientError) Unwrap() error { return e.Err }

// RunawayError means the step budget was exhausted before the stopping
// policy terminated the run. It signals a policy or template defect, not a
// transient fault.
type RunawayError struct {
	Steps int
}

func (e *RunawayError) Error() string {
	return fmt.Sprintf("run exceeded step budget of %d without terminating", e.Steps)
}

// SelectionError means the caller referenced a fraud case, profile, or
// victim that is not in the registry. Raised before any model call.
type SelectionError struct {
	Kind string
	Key  string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("unknown %s: %q", e.Kind, e.Key)
}
