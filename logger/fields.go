package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across mqbuild.
// Use these constants instead of raw strings so CI log queries keep working.
const (
	// Invocation
	FieldRunID     = "run_id"
	FieldComponent = "component"
	FieldOperation = "operation"

	// Resolution inputs
	FieldVersion   = "version"
	FieldInstalled = "installed"
	FieldRequired  = "required"
	FieldFeature   = "feature"
	FieldFeatures  = "features"

	// Capabilities and probes
	FieldCapability = "capability"
	FieldGate       = "gate"
	FieldActive     = "active"
	FieldProbe      = "probe"
	FieldCompiler   = "compiler"

	// Constants
	FieldConstant = "constant"
	FieldKind     = "kind"

	// Files and paths
	FieldFile   = "file"
	FieldPath   = "path"
	FieldBinary = "binary"
	FieldSource = "source"

	// Timing and counts
	FieldDurationMS = "duration_ms"
	FieldCount      = "count"

	// Errors
	FieldError = "error"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	r := &Runner{logger: logger.ComponentLogger("probe")}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
// Example:
//
//	runLogger := logger.ChildLogger(base, logger.FieldRunID, runID)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
