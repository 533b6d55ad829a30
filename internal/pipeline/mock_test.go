package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nao1215/fileingest/internal/model"
)

// callLog records module calls in the order they happen.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// mockModule is a test helper that implements the FileModule interface.
type mockModule struct {
	name        string
	class       string
	log         *callLog
	startUpFunc func(jc *JobContext) error
	processFunc func(ctx context.Context, file *model.File) (ProcessResult, error)
	shutDownErr error
	jobContext  *JobContext
}

// ClassName implements ClassNamer.
func (m *mockModule) ClassName() string {
	return m.class
}

// StartUp implements FileModule.StartUp.
func (m *mockModule) StartUp(jc *JobContext) error {
	m.jobContext = jc
	m.log.add("startup:" + m.name)
	if m.startUpFunc != nil {
		return m.startUpFunc(jc)
	}
	return nil
}

// Process implements FileModule.Process.
func (m *mockModule) Process(ctx context.Context, file *model.File) (ProcessResult, error) {
	m.log.add("process:" + m.name)
	if m.processFunc != nil {
		return m.processFunc(ctx, file)
	}
	return ResultOK, nil
}

// ShutDown implements FileModule.ShutDown.
func (m *mockModule) ShutDown(cancelled bool) error {
	if cancelled {
		m.log.add("shutdown-cancelled:" + m.name)
	} else {
		m.log.add("shutdown:" + m.name)
	}
	return m.shutDownErr
}

// mockTemplate is a test helper that implements the ModuleTemplate interface.
type mockTemplate struct {
	name     string
	disabled bool
	create   func() FileModule
	created  int
}

// CanProduceFileModule implements ModuleTemplate.
func (t *mockTemplate) CanProduceFileModule() bool {
	return !t.disabled
}

// CreateFileModule implements ModuleTemplate.
func (t *mockTemplate) CreateFileModule() FileModule {
	t.created++
	return t.create()
}

// DisplayName implements ModuleTemplate.
func (t *mockTemplate) DisplayName() string {
	return t.name
}

// templateFor wraps a module in a template with the module's name.
func templateFor(m *mockModule) *mockTemplate {
	return &mockTemplate{
		name:   m.name,
		create: func() FileModule { return m },
	}
}

// mockJob is a test helper that implements the Job interface.
type mockJob struct {
	cancelled atomic.Bool
}

func (j *mockJob) ID() string                    { return "job-1" }
func (j *mockJob) DataSource() *model.DataSource { return &model.DataSource{Name: "evidence"} }
func (j *mockJob) IsCancelled() bool             { return j.cancelled.Load() }
func (j *mockJob) Context() context.Context      { return context.Background() }

// recordingNotifier is a test helper that records notifications.
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
	files  []int64
}

func (n *recordingNotifier) FireModuleEvent(kind ModuleEventKind, name string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, kind.String()+":"+name)
}

func (n *recordingNotifier) FireFileDone(fileID int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.files = append(n.files, fileID)
}

// plainModule has no ClassName method and is identified by its type name.
type plainModule struct{}

func (plainModule) StartUp(*JobContext) error { return nil }
func (plainModule) Process(context.Context, *model.File) (ProcessResult, error) {
	return ResultOK, nil
}
func (plainModule) ShutDown(bool) error { return nil }

// fixedOrder returns an OrderingSource with the given class identifiers.
func fixedOrder(classes ...string) OrderingSource {
	return OrderingFunc(func() []string { return classes })
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
