package hook

import (
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/AnatoleLucet/hook/internal"
	"github.com/AnatoleLucet/hook/internal/config"
)

const instrumentationName = "github.com/AnatoleLucet/hook"

const (
	ComparatorIdentity = "identity"
	ComparatorDeep     = "deep"
)

// Config holds the dispatcher policies a host may want to set from a file or
// the environment.
type Config struct {
	// Drop a write equal to the committed value (without scheduling a pass)
	// when nothing else is pending on the instance.
	SkipEqualWrites bool `yaml:"skip_equal_writes" env:"HOOK_SKIP_EQUAL_WRITES"`

	// Fault hook calls made from a goroutine other than the one that began the pass.
	StrictGoroutine bool `yaml:"strict_goroutine" env:"HOOK_STRICT_GOROUTINE"`

	// "identity" or "deep".
	Comparator string `yaml:"comparator" env:"HOOK_COMPARATOR"`

	// slog level name; empty keeps logging off.
	LogLevel string `yaml:"log_level" env:"HOOK_LOG_LEVEL"`

	Tracing bool `yaml:"tracing" env:"HOOK_TRACING"`
}

func DefaultConfig() Config {
	return Config{
		Comparator: ComparatorIdentity,
		Tracing:    true,
	}
}

// LoadConfig reads the YAML file at path (optional, may be empty) and then
// the HOOK_* environment variables over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if err := config.Load(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Comparator {
	case "", ComparatorIdentity, ComparatorDeep:
	default:
		return fmt.Errorf("config: unknown comparator %q", c.Comparator)
	}

	if _, err := c.level(); err != nil {
		return err
	}

	return nil
}

func (c Config) level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return level, nil
	}

	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("config: log level: %w", err)
	}
	return level, nil
}

type options struct {
	scheduler       Scheduler
	logger          *slog.Logger
	provider        trace.TracerProvider
	comparator      Comparator
	skipEqualWrites bool
	strictGoroutine bool
}

type Option func(*options)

func newOptions(s Scheduler, opts []Option) *options {
	o := &options{scheduler: s}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *options) runtime() internal.Options {
	provider := o.provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	opts := internal.Options{
		Logger:          o.logger,
		Tracer:          provider.Tracer(instrumentationName),
		Equal:           o.comparator,
		SkipEqualWrites: o.skipEqualWrites,
		StrictGoroutine: o.strictGoroutine,
	}
	if o.scheduler != nil {
		opts.Scheduler = o.scheduler
	}

	return opts
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(o *options) { o.provider = provider }
}

// WithComparator sets how dependency keys are compared. Defaults to Identical.
func WithComparator(c Comparator) Option {
	return func(o *options) { o.comparator = c }
}

func WithSkipEqualWrites(skip bool) Option {
	return func(o *options) { o.skipEqualWrites = skip }
}

func WithStrictGoroutine(strict bool) Option {
	return func(o *options) { o.strictGoroutine = strict }
}

// WithConfig applies cfg. An invalid cfg panics; check it with Validate or
// load it with LoadConfig first.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		if err := cfg.Validate(); err != nil {
			panic(err)
		}

		o.skipEqualWrites = cfg.SkipEqualWrites
		o.strictGoroutine = cfg.StrictGoroutine

		switch cfg.Comparator {
		case ComparatorDeep:
			o.comparator = DeepEqual
		default:
			o.comparator = Identical
		}

		if cfg.LogLevel != "" {
			level, _ := cfg.level()
			o.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		}

		if !cfg.Tracing {
			o.provider = noop.NewTracerProvider()
		}
	}
}
