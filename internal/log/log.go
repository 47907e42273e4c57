// Copyright 2016 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log provides the process-wide structured logger used by the
// planner and executor: callers never construct a *zap.Logger
// themselves, they ask this package for one.
package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	global *zap.Logger
)

// L returns the global structured logger. It is safe for concurrent use
// and is initialized lazily with a sane production configuration so that
// tests and library consumers never have to call an explicit Init.
func L() *zap.Logger {
	once.Do(func() {
		cfg := zap.NewProductionConfig()
		cfg.DisableStacktrace = true
		logger, err := cfg.Build()
		if err != nil {
			// Fall back to a no-op logger rather than panicking: logging
			// must never be the reason a query fails to plan or execute.
			logger = zap.NewNop()
		}
		global = logger
	})
	return global
}

// SetGlobal overrides the package logger, used by hosts that already
// manage their own zap.Logger (wire protocol server, CLI, tests).
func SetGlobal(logger *zap.Logger) {
	once.Do(func() {})
	global = logger
}

// Component returns a logger scoped to a named subsystem.
func Component(name string) *zap.Logger {
	return L().With(zap.String("component", name))
}
