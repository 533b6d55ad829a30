// Package event delivers pipeline lifecycle notifications to subscribers.
//
// Bus implements pipeline.Notifier. Every pipeline of a run shares one Bus,
// which forwards each notification synchronously to the registered
// subscribers. Subscribers must be safe for concurrent use and must not block.
package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/fileingest/internal/pipeline"
)

// Kind identifies the type of an event.
type Kind string

const (
	// KindModuleStarted is published when a module started successfully.
	KindModuleStarted Kind = "module_started"
	// KindModuleCompleted is published when a module was shut down.
	KindModuleCompleted Kind = "module_completed"
	// KindFileDone is published when a file went through the pipeline.
	KindFileDone Kind = "file_done"
)

// Event is a single notification.
type Event struct {
	Kind   Kind
	Module string
	FileID int64
	Time   time.Time
}

// Bus fans pipeline notifications out to subscribers.
type Bus struct {
	mu          sync.RWMutex
	subscribers []func(Event)
}

// NewBus creates a bus with the given subscribers.
func NewBus(subscribers ...func(Event)) *Bus {
	b := &Bus{}
	for _, fn := range subscribers {
		b.Subscribe(fn)
	}
	return b
}

// Subscribe registers fn and returns a function that removes it again.
func (b *Bus) Subscribe(fn func(Event)) (cancel func()) {
	b.mu.Lock()
	idx := len(b.subscribers)
	b.subscribers = append(b.subscribers, fn)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if idx < len(b.subscribers) {
			// The slice is append-only; clear the slot to keep indexes stable.
			b.subscribers[idx] = nil
		}
	}
}

// Publish delivers e to every subscriber.
func (b *Bus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.subscribers {
		if fn != nil {
			fn(e)
		}
	}
}

// FireModuleEvent implements pipeline.Notifier.
func (b *Bus) FireModuleEvent(kind pipeline.ModuleEventKind, moduleDisplayName string) {
	k := KindModuleStarted
	if kind == pipeline.ModuleCompleted {
		k = KindModuleCompleted
	}
	b.Publish(Event{Kind: k, Module: moduleDisplayName})
}

// FireFileDone implements pipeline.Notifier.
func (b *Bus) FireFileDone(fileID int64) {
	b.Publish(Event{Kind: KindFileDone, FileID: fileID})
}

// LogSubscriber returns a subscriber that logs every event at debug level.
func LogSubscriber(logger *slog.Logger) func(Event) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(e Event) {
		switch e.Kind {
		case KindFileDone:
			logger.Debug("file done", "file_id", e.FileID)
		default:
			logger.Debug("module event", "kind", string(e.Kind), "module", e.Module)
		}
	}
}

// Counter tracks progress from events.
type Counter struct {
	filesDone        atomic.Int64
	modulesStarted   atomic.Int64
	modulesCompleted atomic.Int64
}

// Handle is the subscriber function of the counter.
func (c *Counter) Handle(e Event) {
	switch e.Kind {
	case KindFileDone:
		c.filesDone.Add(1)
	case KindModuleStarted:
		c.modulesStarted.Add(1)
	case KindModuleCompleted:
		c.modulesCompleted.Add(1)
	}
}

// FilesDone returns the number of files that went through a pipeline.
func (c *Counter) FilesDone() int64 {
	return c.filesDone.Load()
}

// ModulesStarted returns the number of module start events.
func (c *Counter) ModulesStarted() int64 {
	return c.modulesStarted.Load()
}

// ModulesCompleted returns the number of module completion events.
func (c *Counter) ModulesCompleted() int64 {
	return c.modulesCompleted.Load()
}

var _ pipeline.Notifier = (*Bus)(nil)
