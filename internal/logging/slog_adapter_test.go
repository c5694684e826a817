// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogHandler_GroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(NewTestLogger(&buf))
	defer Init(DefaultConfig())

	logger := slog.New(NewSlogHandler()).With("service", "http").WithGroup("supervisor")
	logger.Warn("service restarted", "attempt", 3)

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("expected warn level, got: %s", out)
	}
	if !strings.Contains(out, `"supervisor.service":"http"`) {
		t.Errorf("expected grouped attr, got: %s", out)
	}
	if !strings.Contains(out, `"supervisor.attempt":3`) {
		t.Errorf("expected record attr, got: %s", out)
	}
}

func TestToZerologLevel(t *testing.T) {
	t.Parallel()

	if toZerologLevel(slog.LevelDebug).String() != "debug" {
		t.Error("debug mapping")
	}
	if toZerologLevel(slog.LevelError+4).String() != "error" {
		t.Error("levels above error map to error")
	}
}
