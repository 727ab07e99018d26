// Copyright (c) 2018-2019 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package bsstlog is the package-wide logging facade, following the same
// shape as the teacher's fees and internal/log subpackages: a single
// package-level btclog.Logger that defaults to discarding everything until
// the CLI wires in a real backend.
package bsstlog

import (
	"github.com/btcsuite/btclog"
)

// log is a logger that is initialized with no output filters. This means
// the package will not perform any logging by default until the caller
// requests it via UseLogger.
var log = btclog.Disabled

// DisableLog disables all library log output. Logging output is disabled by
// default until UseLogger is called.
func DisableLog() {
	log = btclog.Disabled
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// Log returns the currently configured logger, for callers that need it
// directly rather than through the wrappers below. No package in this module
// calls it; the only log output is plugins/modelusage's Warnf.
func Log() btclog.Logger {
	return log
}

// Tracef logs per-opcode step information at the trace level, gated behind
// --log-progress at the CLI layer (UseLogger is only called with a
// trace-enabled backend when that flag is set).
func Tracef(format string, args ...interface{}) {
	log.Tracef(format, args...)
}

// Debugf logs solver-attempt information at the debug level, mirroring
// --log-solving-attempts.
func Debugf(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Warnf logs a recoverable but noteworthy condition.
func Warnf(format string, args ...interface{}) {
	log.Warnf(format, args...)
}
