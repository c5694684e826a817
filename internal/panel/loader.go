// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package panel

import (
	"sync"
)

// Loader is the scoped loading indicator of one flow.
//
// Acquire it with startLoading and release it with defer. Release leaves
// RegionLoading for the region the flow committed, or RegionError when the
// flow committed nothing. A Loader whose flow has been superseded touches
// nothing.
type Loader struct {
	mu      *sync.Mutex
	state   *UIState
	current func() bool

	committed bool
	released  bool
}

// startLoading moves state into RegionLoading. The caller must not hold mu.
// current reports whether the flow still owns state; it is called with mu
// held. nil means always.
func startLoading(mu *sync.Mutex, state *UIState, current func() bool) *Loader {
	if current == nil {
		current = func() bool { return true }
	}

	l := &Loader{mu: mu, state: state, current: current}

	mu.Lock()
	defer mu.Unlock()
	if current() {
		state.Region = RegionLoading
		state.ErrorMessage = ""
	}
	return l
}

// Commit applies fn to the state and shows region, if the flow is still
// current. It reports whether anything was applied.
func (l *Loader) Commit(region Region, fn func(*UIState)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released || !l.current() {
		return false
	}
	if fn != nil {
		fn(l.state)
	}
	l.state.Region = region
	l.committed = true
	return true
}

// Fail shows the error region with message.
func (l *Loader) Fail(message string) bool {
	return l.Commit(RegionError, func(s *UIState) {
		s.ErrorMessage = message
	})
}

// Release ends the loading phase. It is safe to call more than once.
func (l *Loader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return
	}
	l.released = true

	if !l.current() {
		return
	}
	if !l.committed || l.state.Region == RegionLoading {
		l.state.Region = RegionError
	}
}
