// Package blackboard defines where analysis modules post their artifacts.
//
// The case database is the production blackboard. Memory keeps artifacts in
// process for tests and dry runs, and Recorder lets the ingest manager observe
// every posted artifact without the modules knowing about job reports.
package blackboard

import (
	"context"
	"errors"
	"sync"

	"github.com/nao1215/fileingest/internal/model"
)

// ErrNotConfigured is returned by modules started without a blackboard.
var ErrNotConfigured = errors.New("no blackboard configured")

// Blackboard receives artifacts posted by analysis modules.
// Implementations must be safe for concurrent use.
type Blackboard interface {
	PostArtifact(ctx context.Context, a *model.Artifact) error
}

// Memory is an in-memory Blackboard.
type Memory struct {
	mu        sync.Mutex
	artifacts []*model.Artifact
	nextID    int64
}

// NewMemory creates an empty in-memory blackboard.
func NewMemory() *Memory {
	return &Memory{}
}

// PostArtifact implements Blackboard. It assigns sequential identifiers.
func (m *Memory) PostArtifact(ctx context.Context, a *model.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	a.ID = m.nextID
	m.artifacts = append(m.artifacts, a)
	return nil
}

// Artifacts returns every posted artifact in posting order.
func (m *Memory) Artifacts() []*model.Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*model.Artifact, len(m.artifacts))
	copy(out, m.artifacts)
	return out
}

// ByType returns the posted artifacts of one type in posting order.
func (m *Memory) ByType(t model.ArtifactType) []*model.Artifact {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Artifact
	for _, a := range m.artifacts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// Recorder forwards artifacts to another Blackboard and reports every
// successfully posted artifact to an observer.
type Recorder struct {
	next   Blackboard
	mu     sync.Mutex
	onPost func(*model.Artifact)
}

// NewRecorder creates a Recorder. The observer is called with the recorder's
// lock held, so it may update unsynchronized state.
func NewRecorder(next Blackboard, onPost func(*model.Artifact)) *Recorder {
	return &Recorder{next: next, onPost: onPost}
}

// PostArtifact implements Blackboard.
func (r *Recorder) PostArtifact(ctx context.Context, a *model.Artifact) error {
	if err := r.next.PostArtifact(ctx, a); err != nil {
		return err
	}
	if r.onPost == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPost(a)
	return nil
}

var (
	_ Blackboard = (*Memory)(nil)
	_ Blackboard = (*Recorder)(nil)
)
