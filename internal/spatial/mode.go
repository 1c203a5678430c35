// Modelview - Collaborative 3D Model Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/modelview

package spatial

import (
	"fmt"
	"strings"
	"sync"
)

// Mode is the active interaction mode of a viewer.
type Mode int

const (
	// ModeTransform enables drag controls on the model. Initial mode.
	ModeTransform Mode = iota
	// ModeNote enables vertex picking for new annotations.
	ModeNote
)

func (m Mode) String() string {
	switch m {
	case ModeTransform:
		return "transform"
	case ModeNote:
		return "note"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "transform" or "note", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "transform":
		return ModeTransform, nil
	case "note":
		return ModeNote, nil
	}
	return ModeTransform, fmt.Errorf("unknown mode %q", s)
}

// ModeListener is called after the mode changes.
type ModeListener func(prev, next Mode)

// ModeState holds the current mode. Modes are mutually exclusive and not
// stacked; Switch is the only transition.
type ModeState struct {
	mu        sync.Mutex
	mode      Mode
	nextID    int
	listeners map[int]ModeListener
	order     []int
}

// NewModeState starts in ModeTransform.
func NewModeState() *ModeState {
	return &ModeState{mode: ModeTransform, listeners: make(map[int]ModeListener)}
}

// Current returns the active mode.
func (s *ModeState) Current() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// PickingActive reports whether the vertex resolver should run.
func (s *ModeState) PickingActive() bool { return s.Current() == ModeNote }

// TransformControlsActive reports whether drag-transform controls are live.
func (s *ModeState) TransformControlsActive() bool { return s.Current() == ModeTransform }

// Switch sets the mode and notifies listeners when it changed. It reports
// whether a transition happened. Listeners run on the caller's goroutine
// after the lock is released.
func (s *ModeState) Switch(m Mode) bool {
	if m != ModeTransform && m != ModeNote {
		return false
	}
	s.mu.Lock()
	prev := s.mode
	if prev == m {
		s.mu.Unlock()
		return false
	}
	s.mode = m
	ls := make([]ModeListener, 0, len(s.order))
	for _, id := range s.order {
		ls = append(ls, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range ls {
		l(prev, m)
	}
	return true
}

// Subscribe registers l and returns a function that removes it.
func (s *ModeState) Subscribe(l ModeListener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = l
	s.order = append(s.order, id)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.listeners[id]; !ok {
			return
		}
		delete(s.listeners, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i:i], s.order[i+1:]...)
				break
			}
		}
	}
}
