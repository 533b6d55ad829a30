package pipeline

import (
	"errors"
	"fmt"
)

// Sentinel errors for module failures.
// A ModuleError matches the sentinel of its phase with errors.Is.
var (
	// ErrModuleStartup matches errors recorded while starting a module.
	ErrModuleStartup = errors.New("module start up failed")

	// ErrModuleProcess matches errors recorded while a module processed a file.
	ErrModuleProcess = errors.New("module process failed")

	// ErrModuleShutdown matches errors recorded while shutting a module down.
	ErrModuleShutdown = errors.New("module shut down failed")

	// ErrModulePanic wraps a panic recovered from a module.
	ErrModulePanic = errors.New("module panicked")

	// ErrProcessFailed is recorded when a module reports ResultError
	// without returning an error.
	ErrProcessFailed = errors.New("module reported a processing error")

	// ErrNilModule is recorded when a template creates a nil module.
	ErrNilModule = errors.New("template created a nil module")
)

// Phase is the lifecycle phase in which a module failed.
type Phase string

const (
	// PhaseStartUp is the module start-up phase.
	PhaseStartUp Phase = "startup"
	// PhaseProcess is the per-file processing phase.
	PhaseProcess Phase = "process"
	// PhaseShutDown is the module shut-down phase.
	PhaseShutDown Phase = "shutdown"
)

// sentinel returns the sentinel error matching the phase.
func (p Phase) sentinel() error {
	switch p {
	case PhaseStartUp:
		return ErrModuleStartup
	case PhaseProcess:
		return ErrModuleProcess
	case PhaseShutDown:
		return ErrModuleShutdown
	default:
		return nil
	}
}

// ModuleError records one failure of one module.
// It is returned in slices by the pipeline and never thrown.
type ModuleError struct {
	// Module is the display name of the failing module.
	Module string

	// Phase is the lifecycle phase that failed.
	Phase Phase

	// FileID is the file being processed. Zero outside PhaseProcess.
	FileID int64

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e ModuleError) Error() string {
	if e.Phase == PhaseProcess {
		return fmt.Sprintf("module %q failed to process file %d: %v", e.Module, e.FileID, e.Err)
	}
	return fmt.Sprintf("module %q failed during %s: %v", e.Module, e.Phase, e.Err)
}

// Unwrap returns the underlying cause.
func (e ModuleError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel of the error's phase.
func (e ModuleError) Is(target error) bool {
	s := e.Phase.sentinel()
	return s != nil && target == s
}
