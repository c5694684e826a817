// Marketpanel - Marketplace Selection and Usage Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketpanel

package store

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/marketpanel/internal/logging"
)

// badgerLogger routes badger's printf-style logging into zerolog. Badger is
// chatty at info level, so its info output is demoted to debug.
type badgerLogger struct {
	log zerolog.Logger
}

func newBadgerLogger() *badgerLogger {
	return &badgerLogger{log: logging.WithComponent("badger")}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msgf(strings.TrimSpace(format), args...)
}
