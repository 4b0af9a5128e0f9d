package host

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/riverrun-dev/riverrun/application/validation"
	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/domain/graph"
	"github.com/riverrun-dev/riverrun/domain/ports"
	"github.com/riverrun-dev/riverrun/infrastructure/parser"
)

// engineConfig holds configuration for the Engine.
type engineConfig struct {
	parser        ports.ManifestParser
	loader        ports.ModuleLoader
	hostContracts []string
	logger        *slog.Logger
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		parser: parser.NewYAMLParser(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// EngineOption configures the Engine.
type EngineOption func(*engineConfig)

// WithParser sets a custom manifest parser.
func WithParser(p ports.ManifestParser) EngineOption {
	return func(c *engineConfig) {
		c.parser = p
	}
}

// WithModuleLoader sets the module loader the sequencer drives.
func WithModuleLoader(l ports.ModuleLoader) EngineOption {
	return func(c *engineConfig) {
		c.loader = l
	}
}

// WithHostContracts declares the contracts the host fulfills natively.
// Symbol uses of these are pre-satisfied.
func WithHostContracts(contracts ...string) EngineOption {
	return func(c *engineConfig) {
		c.hostContracts = append(c.hostContracts, contracts...)
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// Engine is the extension resolution engine: it owns the manifest pipeline
// (parse, graph, validate, sequence) and answers contract resolution for RPC
// dispatch afterwards. The manifest and graph are built once in Start and
// immutable from then on; reload requires a new Engine.
type Engine struct {
	config   engineConfig
	manifest *entities.Manifest
	graph    *graph.Graph
	report   *LoadReport
}

// NewEngine creates an Engine. A module loader must be supplied before Start.
func NewEngine(opts ...EngineOption) *Engine {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{config: cfg}
}

// Start runs the startup pipeline on a raw manifest document. Parse,
// validation, and cycle errors are unrecoverable and keep the engine out of
// service; per-symbol load failures degrade gracefully and surface later as
// ErrNotFound on Resolve.
func (e *Engine) Start(ctx context.Context, rawManifest []byte) error {
	if e.config.loader == nil {
		return fmt.Errorf("engine misconfigured: no module loader")
	}

	m, err := e.config.parser.ParseManifest(rawManifest)
	if err != nil {
		return &errors.ParseError{Document: "manifest", Err: err}
	}

	g := graph.Build(m, graph.WithHostContracts(e.config.hostContracts...))

	report := validation.NewManifestValidator().Validate(g, m)
	if !report.Valid {
		return &errors.ValidationError{Report: report}
	}

	sequencer := NewSequencer(e.config.loader, WithSequencerLogger(e.config.logger))
	loadReport, err := sequencer.Run(ctx, g, m)
	if err != nil {
		return err
	}

	e.manifest = m
	e.graph = g
	e.report = loadReport

	e.config.logger.Info("extension engine started",
		"symbols", g.Len(),
		"required_contracts", len(m.RequiredContracts))
	return nil
}

// Resolve returns the loaded symbol fulfilling a contract, after alias
// expansion. Contracts whose fulfiller is Unavailable or Skipped resolve to
// ErrNotFound, exactly like contracts nothing ever fulfilled.
func (e *Engine) Resolve(contract string) (entities.Symbol, error) {
	if e.graph == nil {
		return entities.Symbol{}, errors.ErrNotFound
	}
	idx, ok := e.graph.ResolveIndex(contract)
	if !ok {
		return entities.Symbol{}, errors.ErrNotFound
	}
	sym := e.graph.Symbol(idx)
	if !e.report.Loaded(sym.ID) {
		return entities.Symbol{}, errors.ErrNotFound
	}
	return sym, nil
}

// Handle returns the module handle for a loaded symbol id.
func (e *Engine) Handle(symbolID string) (ports.ModuleHandle, bool) {
	if e.report == nil {
		return nil, false
	}
	res, ok := e.report.Results[symbolID]
	if !ok || res.State != StateLoaded {
		return nil, false
	}
	return res.Handle, true
}

// Report returns the load report from Start.
func (e *Engine) Report() *LoadReport {
	return e.report
}

// Manifest returns the immutable manifest snapshot.
func (e *Engine) Manifest() *entities.Manifest {
	return e.manifest
}

// Close releases every handle the engine loaded.
func (e *Engine) Close(ctx context.Context) error {
	if e.report == nil {
		return nil
	}
	return e.report.Close(ctx)
}
