package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

const defaultHistorySize = 1000

// Config is the daemon's logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mu              sync.RWMutex
	config          Config
	initialized     bool
	history         *History
	globalLevel     = &slog.LevelVar{}
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
)

// Initialize applies the configuration, rebuilds all module loggers and
// installs the default slog logger. Loggers obtained from GetLogger before
// Initialize pick up the configured levels and handler chain here.
func Initialize(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	config = cfg
	initialized = true
	history = NewHistory(defaultHistorySize)

	globalLevel.Set(levelOrDefault(cfg.Level, slog.LevelInfo))

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(cfg, module))
		moduleLoggers[module] = slog.New(buildHandler(cfg.Format, levelVar)).With("module", module)
	}

	slog.SetDefault(slog.New(buildHandler(cfg.Format, globalLevel)))
}

// GetLogger returns the logger for a module, creating it on first use.
// The module name is attached as a "module" attribute and its level can
// be overridden per module in the configuration.
func GetLogger(module string) *slog.Logger {
	mu.RLock()
	if logger, ok := moduleLoggers[module]; ok {
		mu.RUnlock()
		return logger
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()

	if logger, ok := moduleLoggers[module]; ok {
		return logger
	}

	levelVar := &slog.LevelVar{}
	format := "text"
	if initialized {
		levelVar.Set(moduleLevel(config, module))
		format = config.Format
	} else {
		levelVar.Set(slog.LevelInfo)
	}

	logger := slog.New(buildHandler(format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// GetHistory returns the ring of recent log entries, or nil before Initialize.
func GetHistory() *History {
	mu.RLock()
	defer mu.RUnlock()
	return history
}

// SetModuleLevel changes one module's level at runtime.
func SetModuleLevel(module, level string) bool {
	parsed := parseLevel(level)
	if parsed == nil {
		return false
	}

	mu.Lock()
	defer mu.Unlock()
	levelVar, ok := moduleLevelVars[module]
	if !ok {
		return false
	}
	levelVar.Set(*parsed)
	return true
}

// buildHandler assembles the handler chain: stdout (text or json), the
// systemd journal when reachable, and the in-memory history ring.
func buildHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var stdout slog.Handler
	if format == "json" {
		stdout = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		stdout = slog.NewTextHandler(os.Stdout, opts)
	}

	// The history handler resolves the ring at Handle time so handlers
	// built before Initialize still reach it.
	handlers := []slog.Handler{stdout}
	if journalAvailable() {
		handlers = append(handlers, newJournalHandler(level))
	}
	handlers = append(handlers, newHistoryHandler(currentHistory, level))

	return newMultiHandler(handlers...)
}

func currentHistory() *History {
	mu.RLock()
	defer mu.RUnlock()
	return history
}

func moduleLevel(cfg Config, module string) slog.Level {
	level := levelOrDefault(cfg.Level, slog.LevelInfo)
	if override, ok := cfg.Modules[module]; ok {
		if parsed := parseLevel(override); parsed != nil {
			level = *parsed
		}
	}
	return level
}

func levelOrDefault(s string, fallback slog.Level) slog.Level {
	if parsed := parseLevel(s); parsed != nil {
		return *parsed
	}
	return fallback
}

func parseLevel(s string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(s) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}
