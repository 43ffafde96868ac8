package statebox

import (
	"strings"
	"time"

	"github.com/goliatone/go-statebox/pkg/activity"
	"github.com/goliatone/go-statebox/pkg/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	// DefaultHistoryLimit bounds the undo stack unless WithHistoryLimit says
	// otherwise.
	DefaultHistoryLimit = 50
	// DefaultVersion is stamped into persisted snapshots.
	DefaultVersion = 1
	// DefaultStorageKey is used by Persist and Hydrate when called with an
	// empty key.
	DefaultStorageKey = "app_state"
	// DefaultActivityChannel labels activity events emitted by the store.
	DefaultActivityChannel = "state"

	tracerName = "github.com/goliatone/go-statebox"
)

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	historyLimit    int
	version         int
	storage         storage.Storage
	storageKey      string
	logger          *zap.Logger
	observer        OperationObserver
	activityHooks   activity.Hooks
	activityChannel string
	evaluator       Evaluator
	functions       *FunctionRegistry
	programCache    ProgramCache
	tracer          trace.Tracer
	now             func() time.Time
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{
		historyLimit:    DefaultHistoryLimit,
		version:         DefaultVersion,
		storageKey:      DefaultStorageKey,
		activityChannel: DefaultActivityChannel,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.observer == nil {
		cfg.observer = noopObserver{}
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

// WithHistoryLimit bounds the undo history. Zero disables history; negative
// values fall back to DefaultHistoryLimit.
func WithHistoryLimit(limit int) Option {
	return func(cfg *storeConfig) {
		if limit < 0 {
			limit = DefaultHistoryLimit
		}
		cfg.historyLimit = limit
	}
}

// WithVersion sets the snapshot version written by Persist and required by
// Hydrate.
func WithVersion(version int) Option {
	return func(cfg *storeConfig) {
		cfg.version = version
	}
}

// WithStorage configures the key-value collaborator used by Persist and
// Hydrate.
func WithStorage(s storage.Storage) Option {
	return func(cfg *storeConfig) {
		cfg.storage = s
	}
}

// WithStorageKey overrides DefaultStorageKey.
func WithStorageKey(key string) Option {
	return func(cfg *storeConfig) {
		if key = strings.TrimSpace(key); key != "" {
			cfg.storageKey = key
		}
	}
}

// WithLogger attaches a zap logger. Nil keeps the no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = logger
	}
}

// WithObserver attaches an OperationObserver (see pkg/metrics).
func WithObserver(observer OperationObserver) Option {
	return func(cfg *storeConfig) {
		cfg.observer = observer
	}
}

// WithActivityHooks attaches activity hooks notified after each recorded
// mutation. Nil hooks are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides DefaultActivityChannel.
func WithActivityChannel(channel string) Option {
	return func(cfg *storeConfig) {
		cfg.activityChannel = channel
	}
}

// WithEvaluator sets the evaluator used by Evaluate. Defaults to expr.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithFunctionRegistry exposes custom functions to the default evaluator.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *storeConfig) {
		cfg.functions = registry.Clone()
	}
}

// WithProgramCache lets the default evaluator reuse compiled programs.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *storeConfig) {
		cfg.programCache = cache
	}
}

// WithTracer overrides the tracer used around Persist and Hydrate.
func WithTracer(tracer trace.Tracer) Option {
	return func(cfg *storeConfig) {
		cfg.tracer = tracer
	}
}

// WithClock overrides the clock used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *storeConfig) {
		cfg.now = now
	}
}

// SetOption configures a single write.
type SetOption func(*setConfig)

type setConfig struct {
	silent bool
}

// Silent suppresses the history entry and all notifications for a write.
func Silent() SetOption {
	return func(cfg *setConfig) {
		cfg.silent = true
	}
}

func applySetOptions(opts []SetOption) setConfig {
	cfg := setConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
