package pipeline

// ModuleEventKind identifies a module lifecycle notification.
type ModuleEventKind int

const (
	// ModuleStarted is fired once for every module that started successfully.
	ModuleStarted ModuleEventKind = iota
	// ModuleCompleted is fired once for every started module at shut down.
	ModuleCompleted
)

// String returns a human-readable representation of the event kind.
func (k ModuleEventKind) String() string {
	switch k {
	case ModuleStarted:
		return "started"
	case ModuleCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Notifier receives lifecycle notifications from a pipeline.
// Implementations shared between pipelines must be safe for concurrent use.
type Notifier interface {
	// FireModuleEvent reports a module lifecycle transition.
	FireModuleEvent(kind ModuleEventKind, moduleDisplayName string)

	// FireFileDone reports that a file went through the whole chain.
	FireFileDone(fileID int64)
}

// nopNotifier discards every notification.
type nopNotifier struct{}

func (nopNotifier) FireModuleEvent(ModuleEventKind, string) {}
func (nopNotifier) FireFileDone(int64)                      {}
