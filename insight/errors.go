package insight

import "fmt"

// DataIntegrityError reports trace data that cannot be analyzed: an attempt
// referencing a stage or job outside its run's declared schema, or a cyclic
// dependency declaration. The affected pipeline type is dropped from the
// report and the error is surfaced to the caller.
type DataIntegrityError struct {
	Signature Signature // pipeline type signature, empty when the run never clustered
	Run       string    // offending run identifier, if known
	Job       string    // offending job name, if known
	Reason    string
}

func (e *DataIntegrityError) Error() string {
	msg := "data integrity: " + e.Reason
	if e.Job != "" {
		msg += fmt.Sprintf(" (job %q)", e.Job)
	}
	if e.Run != "" {
		msg += fmt.Sprintf(" (run %s)", e.Run)
	}
	if e.Signature != "" {
		msg += fmt.Sprintf(" (type %s)", e.Signature)
	}
	return msg
}

// ConfigurationError reports an invalid engine configuration value. It is
// returned before any analysis begins.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%v: %s", e.Field, e.Value, e.Reason)
}
