/*
Package corelog provides structured logging for the storage engine using
zerolog.

# Architecture

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - zerolog instance                         │          │
	│  │  - Initialized via corelog.Init()           │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Context Loggers                     │          │
	│  │  - WithStorage("backup-pool-1")              │          │
	│  │  - WithOperation("save")                    │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │  {"level":"info","storage":"backup-pool-1", │          │
	│  │   "op":"save","time":"...","message":"..."} │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Usage

	corelog.Init(corelog.Config{
		Level:      corelog.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	storageLog := corelog.WithStorage("backup-pool-1")
	storageLog.Info().Str("op", "save").Str("key", uid.String()).Msg("block saved")

	opLog := corelog.WithOperation("check").
		With().Str("storage", "backup-pool-1").Logger()
	opLog.Warn().Err(err).Msg("consistency check failed")

# Design Patterns

Global logger, initialized once at process start and read from every
package without being passed explicitly; context loggers built with
With()/WithStorage()/WithOperation() carry structured fields instead of
string-concatenated messages, so log lines stay queryable by storage name
and operation.

Never log block payloads, encryption keys, or HMAC keys; the engine logs
keys, sizes, and durations only.
*/
package corelog
