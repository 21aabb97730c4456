package calc

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var fieldValidator = validator.New()

// EngineConfig holds the validated construction parameters for an
// Engine, checked with go-playground/validator struct tags the way
// vinodismyname-mcpxcel's pkg/validation package validates its MCP
// request structs — an empty DefaultSheet fails fast at construction
// with a descriptive error. Tolerance carries no validation tag.
type EngineConfig struct {
	DefaultSheet string `validate:"required"`
	Tolerance    float64
}

// Option configures an Engine at construction time, mirroring the
// functional-options pattern the corpus uses for its service
// constructors.
type Option func(*EngineConfig, *Registry, *zerolog.Logger)

// WithDefaultSheet sets EngineConfig.DefaultSheet. Required; NewEngine
// returns an error without one. Unqualified references in a formula
// resolve against the sheet of the cell holding the formula; evaluation
// does not read DefaultSheet.
func WithDefaultSheet(name string) Option {
	return func(cfg *EngineConfig, _ *Registry, _ *zerolog.Logger) {
		cfg.DefaultSheet = name
	}
}

// WithTolerance overrides the default 1e-10 numeric-equality tolerance
// Recalculate uses when diffing old and new cell values.
func WithTolerance(tolerance float64) Option {
	return func(cfg *EngineConfig, _ *Registry, _ *zerolog.Logger) {
		cfg.Tolerance = tolerance
	}
}

// WithLogger installs a zerolog.Logger for the engine's "cannot-evaluate"
// diagnostic trail. Defaults to zerolog.Nop() so library consumers must
// opt in, matching vinodismyname-mcpxcel's hooks.NewHooks(logger) pattern
// of taking a logger as an explicit dependency rather than reaching for a
// package-global.
func WithLogger(logger zerolog.Logger) Option {
	return func(_ *EngineConfig, _ *Registry, l *zerolog.Logger) {
		*l = logger
	}
}

// WithFunction registers an additional or replacement builtin function,
// satisfying the spec's register_function extension point.
func WithFunction(name string, fn NormalFunc) Option {
	return func(_ *EngineConfig, r *Registry, _ *zerolog.Logger) {
		r.Register(strings.ToUpper(name), fn)
	}
}

// validateConfig runs struct-tag validation over cfg, wrapping any
// failure with the calc package's own error type rather than leaking a
// raw validator.ValidationErrors.
func validateConfig(cfg EngineConfig) error {
	if err := fieldValidator.Struct(cfg); err != nil {
		return fmt.Errorf("calc: invalid engine configuration: %w", err)
	}
	return nil
}
