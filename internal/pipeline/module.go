package pipeline

import (
	"context"
	"fmt"
	"reflect"

	"github.com/nao1215/fileingest/internal/model"
)

// ProcessResult is the outcome a module reports for one file.
type ProcessResult int

const (
	// ResultOK means the module handled the file.
	ResultOK ProcessResult = iota
	// ResultError means the module could not handle the file.
	ResultError
)

// String returns a human-readable representation of the result.
func (r ProcessResult) String() string {
	switch r {
	case ResultOK:
		return "OK"
	case ResultError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FileModule is an analysis module instance.
//
// Design decision: The contract has exactly the three lifecycle operations.
// Modules receive their collaborators (case database, logger, settings) from
// the template that creates them, not from the pipeline.
type FileModule interface {
	// StartUp prepares the module for a job. A returned error excludes the
	// module from the pipeline.
	StartUp(jc *JobContext) error

	// Process analyzes one file. The module must not close the file.
	Process(ctx context.Context, file *model.File) (ProcessResult, error)

	// ShutDown releases the module's resources. cancelled reports whether
	// the job was cancelled before every file was processed.
	ShutDown(cancelled bool) error
}

// ModuleTemplate is a factory for module instances.
type ModuleTemplate interface {
	// CanProduceFileModule reports whether the template creates file modules.
	CanProduceFileModule() bool

	// CreateFileModule creates a new module instance.
	CreateFileModule() FileModule

	// DisplayName returns the human-readable module name.
	DisplayName() string
}

// ClassNamer is implemented by modules that provide their own class identifier
// for pipeline ordering. Other modules are identified by their Go type name.
type ClassNamer interface {
	ClassName() string
}

// ClassNameOf returns the class identifier used to order a module.
func ClassNameOf(m FileModule) string {
	if cn, ok := m.(ClassNamer); ok {
		if name := cn.ClassName(); name != "" {
			return name
		}
	}
	t := reflect.TypeOf(m)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// moduleDecorator pairs a module instance with its identity and converts
// panics into errors at every call.
type moduleDecorator struct {
	module      FileModule
	displayName string
	className   string
}

func newModuleDecorator(m FileModule, displayName string) *moduleDecorator {
	return &moduleDecorator{
		module:      m,
		displayName: displayName,
		className:   ClassNameOf(m),
	}
}

func (d *moduleDecorator) startUp(jc *JobContext) (err error) {
	defer recoverPanic(&err)
	return d.module.StartUp(jc)
}

func (d *moduleDecorator) process(ctx context.Context, file *model.File) (err error) {
	defer recoverPanic(&err)
	result, err := d.module.Process(ctx, file)
	if err != nil {
		return err
	}
	if result == ResultError {
		return ErrProcessFailed
	}
	return nil
}

func (d *moduleDecorator) shutDown(cancelled bool) (err error) {
	defer recoverPanic(&err)
	return d.module.ShutDown(cancelled)
}

// recoverPanic turns a recovered panic into an ErrModulePanic error.
// It must be called directly by defer.
func recoverPanic(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrModulePanic, r)
	}
}
