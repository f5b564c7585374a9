/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history implements the snapshot-based undo/redo engine. Entries
// hold whole-project deep clones so page add/remove and cross-page moves are
// undoable; restoring an entry replaces the live document model and triggers
// a full scene rebuild rather than an incremental diff.
package history

import (
	"context"
	"log/slog"
	"time"

	"canvasstudio/internal/domain"
	applog "canvasstudio/internal/log"
)

// DefaultMaxDepth bounds each stack when no explicit depth is configured.
const DefaultMaxDepth = 50

// Entry is one checkpoint on the undo or redo stack.
type Entry struct {
	ID        string
	Timestamp time.Time
	Label     string
	Snapshot  *domain.Project
}

// Engine manages the bounded past/future stacks. Current returns the live
// project (never retained; it is cloned at capture time); Restore atomically
// replaces the live document model and rebuilds the render scene.
type Engine struct {
	log     *slog.Logger
	max     int
	current func() *domain.Project
	restore func(ctx context.Context, p *domain.Project) error

	past      []Entry
	future    []Entry
	restoring bool
}

// New builds an engine. maxDepth <= 0 selects DefaultMaxDepth.
func New(maxDepth int, current func() *domain.Project, restore func(ctx context.Context, p *domain.Project) error) *Engine {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Engine{
		log:     applog.WithComponent("history"),
		max:     maxDepth,
		current: current,
		restore: restore,
	}
}

// CanUndo reports whether an undo step exists.
func (e *Engine) CanUndo() bool { return len(e.past) > 0 }

// CanRedo reports whether a redo step exists.
func (e *Engine) CanRedo() bool { return len(e.future) > 0 }

// Depth returns the current stack sizes.
func (e *Engine) Depth() (past, future int) { return len(e.past), len(e.future) }

// Entries returns a copy of the past stack, oldest first, for history UIs.
func (e *Engine) Entries() []Entry { return append([]Entry(nil), e.past...) }

// PushState captures the current project as a new checkpoint, invalidating
// the redo stack. It is a no-op while a restore is in flight so restoring
// history cannot itself generate history.
func (e *Engine) PushState(label string) {
	if e.restoring {
		return
	}
	p := e.current()
	if p == nil {
		return
	}
	e.past = append(e.past, Entry{
		ID:        domain.NewID(),
		Timestamp: time.Now(),
		Label:     label,
		Snapshot:  p.Clone(),
	})
	e.future = nil
	if len(e.past) > e.max {
		// FIFO eviction: the oldest entry is farthest from "now".
		e.past = append([]Entry(nil), e.past[len(e.past)-e.max:]...)
	}
}

// Undo restores the most recent checkpoint. No-op when the past is empty or
// a restore is already in flight. On restore failure the stacks are left as
// they were and the live state is unchanged.
func (e *Engine) Undo(ctx context.Context) bool {
	if e.restoring || len(e.past) == 0 {
		return false
	}
	top := e.past[len(e.past)-1]
	cur := e.current().Clone()

	if !e.applyRestore(ctx, top.Snapshot, "undo", top.Label) {
		return false
	}
	e.past = e.past[:len(e.past)-1]
	e.future = append(e.future, Entry{
		ID:        domain.NewID(),
		Timestamp: time.Now(),
		Label:     top.Label,
		Snapshot:  cur,
	})
	if len(e.future) > e.max {
		e.future = append([]Entry(nil), e.future[len(e.future)-e.max:]...)
	}
	return true
}

// Redo is the exact mirror of Undo.
func (e *Engine) Redo(ctx context.Context) bool {
	if e.restoring || len(e.future) == 0 {
		return false
	}
	top := e.future[len(e.future)-1]
	cur := e.current().Clone()

	if !e.applyRestore(ctx, top.Snapshot, "redo", top.Label) {
		return false
	}
	e.future = e.future[:len(e.future)-1]
	e.past = append(e.past, Entry{
		ID:        domain.NewID(),
		Timestamp: time.Now(),
		Label:     top.Label,
		Snapshot:  cur,
	})
	if len(e.past) > e.max {
		e.past = append([]Entry(nil), e.past[len(e.past)-e.max:]...)
	}
	return true
}

// JumpToState restores an arbitrary past entry by ID, rebuilding the future
// stack as [state-before-jump, skipped states newest-first, existing future]
// so every skipped state remains redoable. Unknown IDs are a no-op.
func (e *Engine) JumpToState(ctx context.Context, entryID string) bool {
	if e.restoring {
		return false
	}
	idx := -1
	for i := range e.past {
		if e.past[i].ID == entryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	target := e.past[idx]
	cur := e.current().Clone()

	if !e.applyRestore(ctx, target.Snapshot, "jump", target.Label) {
		return false
	}

	skipped := e.past[idx+1:]
	newFuture := make([]Entry, 0, 1+len(skipped)+len(e.future))
	// future is popped from the tail, so the nearest redo goes last.
	newFuture = append(newFuture, e.future...)
	for i := range skipped {
		newFuture = append(newFuture, skipped[i])
	}
	newFuture = append(newFuture, Entry{
		ID:        domain.NewID(),
		Timestamp: time.Now(),
		Label:     "jump",
		Snapshot:  cur,
	})
	if len(newFuture) > e.max {
		newFuture = append([]Entry(nil), newFuture[len(newFuture)-e.max:]...)
	}
	e.future = newFuture
	e.past = append([]Entry(nil), e.past[:idx]...)
	return true
}

// Clear drops both stacks.
func (e *Engine) Clear() {
	e.past = nil
	e.future = nil
}

// applyRestore runs the injected restore under the re-entrancy guard. A
// failed restore is logged and reported as false; the caller must leave its
// stacks untouched so the operation degrades to "no visible effect".
func (e *Engine) applyRestore(ctx context.Context, snap *domain.Project, op, label string) bool {
	e.restoring = true
	defer func() { e.restoring = false }()
	if err := e.restore(ctx, snap.Clone()); err != nil {
		e.log.Error("history restore failed",
			slog.String("op", op), slog.String("label", label), slog.Any("err", err))
		return false
	}
	return true
}
