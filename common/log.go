package common

import "github.com/ethereum/go-ethereum/log"

// Logger is the structured-logging seam shared by the trie, account
// repository and EVM packages. Consensus-critical code must never let
// control flow depend on whether logging is enabled, so every logging
// call site checks IsTrace/IsDebug before formatting arguments rather
// than relying on the sink to drop them cheaply.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	IsTrace() bool
	IsDebug() bool
}

// NopLogger discards everything. It is the default for every
// constructor in this module so that production code pays nothing
// unless a caller opts in, and tests never need to stub a logger.
type NopLogger struct{}

func (NopLogger) Trace(string, ...interface{}) {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) IsTrace() bool                { return false }
func (NopLogger) IsDebug() bool                { return false }

// GethLogger adapts github.com/ethereum/go-ethereum/log's global,
// leveled logger to the Logger interface, at the Trace/Debug levels
// this module's call sites use. IsTrace/IsDebug report true
// unconditionally: geth's own handler already filters by level
// cheaply, and call sites only use these to skip building expensive
// ctx arguments, not to decide correctness.
type GethLogger struct{}

func (GethLogger) Trace(msg string, ctx ...interface{}) { log.Trace(msg, ctx...) }
func (GethLogger) Debug(msg string, ctx ...interface{}) { log.Debug(msg, ctx...) }
func (GethLogger) IsTrace() bool                        { return true }
func (GethLogger) IsDebug() bool                        { return true }
