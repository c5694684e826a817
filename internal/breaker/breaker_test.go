// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package breaker

import (
	"context"
	"errors"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
)

var errBoom = errors.New("boom")

func TestBreaker_OpensAfterFailures(t *testing.T) {
	t.Parallel()

	b := New(Settings{Name: "test-opens"})
	if b.State() != gobreaker.StateClosed {
		t.Fatalf("initial state = %v, want closed", b.State())
	}

	for i := 0; i < 11; i++ {
		_, _ = Execute(b, func() (int, error) { return 0, errBoom })
	}

	if b.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open after 100%% failures", b.State())
	}

	_, err := Execute(b, func() (int, error) { return 1, nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected gobreaker.ErrOpenState in chain, got %v", err)
	}
}

func TestBreaker_StaysClosedBelowThreshold(t *testing.T) {
	t.Parallel()

	b := New(Settings{Name: "test-below"})
	for i := 0; i < 20; i++ {
		fail := i%2 == 0
		_, _ = Execute(b, func() (int, error) {
			if fail {
				return 0, errBoom
			}
			return 1, nil
		})
	}

	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed at 50%% failures", b.State())
	}
}

func TestBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	errClient := errors.New("client error")
	b := New(Settings{
		Name:         "test-ignored",
		IsSuccessful: func(err error) bool { return errors.Is(err, errClient) },
	})

	for i := 0; i < 15; i++ {
		_, err := Execute(b, func() (string, error) { return "", errClient })
		if !errors.Is(err, errClient) {
			t.Fatalf("error not passed through: %v", err)
		}
	}
	for i := 0; i < 15; i++ {
		_, _ = Execute(b, func() (string, error) { return "", context.Canceled })
	}

	if b.State() != gobreaker.StateClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestExecute_ReturnsValue(t *testing.T) {
	t.Parallel()

	b := New(Settings{Name: "test-value"})
	got, err := Execute(b, func() ([]string, error) { return []string{"a", "b"}, nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" {
		t.Errorf("got %v", got)
	}
	if b.Name() != "test-value" {
		t.Errorf("Name() = %q", b.Name())
	}
}

func TestStateToFloat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state gobreaker.State
		want  float64
		str   string
	}{
		{gobreaker.StateClosed, 0, "closed"},
		{gobreaker.StateHalfOpen, 1, "half-open"},
		{gobreaker.StateOpen, 2, "open"},
	}
	for _, tt := range tests {
		if got := stateToFloat(tt.state); got != tt.want {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.want)
		}
		if got := stateToString(tt.state); got != tt.str {
			t.Errorf("stateToString(%v) = %q, want %q", tt.state, got, tt.str)
		}
	}
}
