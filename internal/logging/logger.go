// Package logging provides config-driven categorized logging for multimind.
// Logs are written to .multimind/logs/ with a separate file per category,
// built on zap cores. When debug mode is disabled every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and configuration
	CategoryEngine    Category = "engine"    // Query pipeline orchestration
	CategoryPersona   Category = "persona"   // Registry, scoring, analyzers
	CategoryConsensus Category = "consensus" // Weighted combination
	CategoryExplain   Category = "explain"   // Explanation tree assembly
	CategorySpaceMap  Category = "spacemap"  // Coordinate mapping and KNN
	CategoryIndex     Category = "index"     // Search index operations
	CategoryAPI       Category = "api"       // LLM and embedding API calls
	CategoryFormat    Category = "format"    // Response formatting
)

// Logger wraps a category-scoped zap sugared logger.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	loggersMu sync.RWMutex
	loggers   = make(map[Category]*Logger)

	stateMu   sync.RWMutex
	logsDir   string
	debugMode bool
	level     zapcore.Level = zapcore.InfoLevel
)

// Initialize sets up the logging directory. Should be called once at startup
// with the workspace path. When debug is false this is a silent no-op and all
// loggers stay disabled.
func Initialize(workspace string, debug bool, levelName string) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	stateMu.Lock()
	defer stateMu.Unlock()

	debugMode = debug
	switch levelName {
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	if !debug {
		return nil
	}

	logsDir = filepath.Join(workspace, ".multimind", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return debugMode
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled.
func Get(category Category) *Logger {
	stateMu.RLock()
	enabled := debugMode && logsDir != ""
	dir := logsDir
	lvl := level
	stateMu.RUnlock()

	if !enabled {
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// One file per category, date-prefixed for easy rotation.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category, sugar: zap.NewNop().Sugar()}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(file),
		lvl,
	)
	l := &Logger{
		category: category,
		sugar:    zap.New(core).Sugar().Named(string(category)),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// CloseAll flushes all open loggers (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		_ = l.sugar.Sync()
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - Quick logging without getting a logger first
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) { Get(CategoryBoot).Info(format, args...) }

// Engine logs to the engine category.
func Engine(format string, args ...interface{}) { Get(CategoryEngine).Info(format, args...) }

// EngineDebug logs debug to the engine category.
func EngineDebug(format string, args ...interface{}) { Get(CategoryEngine).Debug(format, args...) }

// Persona logs to the persona category.
func Persona(format string, args ...interface{}) { Get(CategoryPersona).Info(format, args...) }

// PersonaDebug logs debug to the persona category.
func PersonaDebug(format string, args ...interface{}) { Get(CategoryPersona).Debug(format, args...) }

// Consensus logs to the consensus category.
func Consensus(format string, args ...interface{}) { Get(CategoryConsensus).Info(format, args...) }

// ConsensusDebug logs debug to the consensus category.
func ConsensusDebug(format string, args ...interface{}) {
	Get(CategoryConsensus).Debug(format, args...)
}

// SpaceMap logs to the spacemap category.
func SpaceMap(format string, args ...interface{}) { Get(CategorySpaceMap).Info(format, args...) }

// SpaceMapDebug logs debug to the spacemap category.
func SpaceMapDebug(format string, args ...interface{}) { Get(CategorySpaceMap).Debug(format, args...) }

// Index logs to the index category.
func Index(format string, args ...interface{}) { Get(CategoryIndex).Info(format, args...) }

// IndexDebug logs debug to the index category.
func IndexDebug(format string, args ...interface{}) { Get(CategoryIndex).Debug(format, args...) }

// API logs to the api category.
func API(format string, args ...interface{}) { Get(CategoryAPI).Info(format, args...) }

// APIDebug logs debug to the api category.
func APIDebug(format string, args ...interface{}) { Get(CategoryAPI).Debug(format, args...) }

// APIWarn logs warning to the api category.
func APIWarn(format string, args ...interface{}) { Get(CategoryAPI).Warn(format, args...) }

// =============================================================================
// TIMING HELPERS - For performance logging
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
