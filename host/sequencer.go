package host

import (
	"context"
	stdErrors "errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/riverrun-dev/riverrun/domain/entities"
	"github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/domain/graph"
	"github.com/riverrun-dev/riverrun/domain/ports"
)

// SymbolState is the terminal load state of one symbol.
type SymbolState string

const (
	// StateLoaded means the symbol loaded within its budget.
	StateLoaded SymbolState = "loaded"
	// StateUnavailable means the load itself failed or timed out.
	StateUnavailable SymbolState = "unavailable"
	// StateSkipped means a prerequisite failed, so the load never ran.
	StateSkipped SymbolState = "skipped"
)

// LoadResult is the terminal outcome for one symbol.
type LoadResult struct {
	SymbolID string
	State    SymbolState
	Err      error // reason for Unavailable/Skipped
	Handle   ports.ModuleHandle
	Elapsed  time.Duration
}

// LoadReport summarizes one sequencer run.
type LoadReport struct {
	// Order is the topological order the run followed, as symbol ids.
	Order []string
	// Results maps symbol id to its terminal state.
	Results map[string]LoadResult
}

// Loaded reports whether the symbol reached StateLoaded.
func (r *LoadReport) Loaded(symbolID string) bool {
	res, ok := r.Results[symbolID]
	return ok && res.State == StateLoaded
}

// Close releases every loaded handle.
func (r *LoadReport) Close(ctx context.Context) error {
	var errs []error
	for _, res := range r.Results {
		if res.Handle != nil {
			if err := res.Handle.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return stdErrors.Join(errs...)
}

// sequencerConfig holds configuration for the Sequencer.
type sequencerConfig struct {
	logger *slog.Logger
}

func defaultSequencerConfig() sequencerConfig {
	return sequencerConfig{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// SequencerOption configures the Sequencer.
type SequencerOption func(*sequencerConfig)

// WithSequencerLogger sets the logger for load progress and failures.
func WithSequencerLogger(logger *slog.Logger) SequencerOption {
	return func(c *sequencerConfig) {
		c.logger = logger
	}
}

// Sequencer computes a safe load order over the contract graph and drives
// the module loader through it. Graph-independent symbols load in parallel;
// each load is bounded by the manifest timeout or the symbol's override.
type Sequencer struct {
	loader ports.ModuleLoader
	config sequencerConfig
}

// NewSequencer creates a Sequencer backed by the given module loader.
func NewSequencer(loader ports.ModuleLoader, opts ...SequencerOption) *Sequencer {
	cfg := defaultSequencerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Sequencer{loader: loader, config: cfg}
}

// Run loads every symbol in dependency order. A cycle among
// extension-provided contracts is fatal and aborts the run before any load
// starts; individual load failures degrade gracefully instead, marking the
// symbol Unavailable and its transitive dependents Skipped while independent
// branches continue.
func (s *Sequencer) Run(ctx context.Context, g *graph.Graph, m *entities.Manifest) (*LoadReport, error) {
	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}

	n := g.Len()
	results := make([]LoadResult, n)
	done := make([]chan struct{}, n)
	for i := range done {
		done[i] = make(chan struct{})
	}

	defaultBudget := m.LoadTimeout()

	var eg errgroup.Group
	for _, idx := range order {
		i := idx
		eg.Go(func() error {
			defer close(done[i])
			results[i] = s.loadOne(ctx, g, i, defaultBudget, results, done)
			return nil
		})
	}
	_ = eg.Wait()

	report := &LoadReport{Results: make(map[string]LoadResult, n)}
	for _, idx := range order {
		res := results[idx]
		report.Order = append(report.Order, res.SymbolID)
		report.Results[res.SymbolID] = res
	}
	return report, nil
}

// loadOne blocks on the symbol's prerequisites and then performs the bounded
// load. A failed prerequisite skips the symbol immediately, without
// consuming its own timeout budget.
func (s *Sequencer) loadOne(ctx context.Context, g *graph.Graph, i int, defaultBudget time.Duration, results []LoadResult, done []chan struct{}) LoadResult {
	sym := g.Symbol(i)
	deps, missing := g.Dependencies(i)

	if len(missing) > 0 {
		err := &errors.DependencyError{SymbolID: sym.ID, Dependency: missing[0]}
		s.config.logger.Error("symbol unavailable", "symbol", sym.ID, "err", err)
		return LoadResult{SymbolID: sym.ID, State: StateUnavailable, Err: err}
	}

	for _, dep := range deps {
		select {
		case <-done[dep]:
		case <-ctx.Done():
			return LoadResult{SymbolID: sym.ID, State: StateSkipped, Err: ctx.Err()}
		}
		if results[dep].State != StateLoaded {
			err := &errors.DependencyError{
				SymbolID:   sym.ID,
				Dependency: results[dep].SymbolID,
				Err:        results[dep].Err,
			}
			s.config.logger.Warn("symbol skipped", "symbol", sym.ID, "dependency", results[dep].SymbolID)
			return LoadResult{SymbolID: sym.ID, State: StateSkipped, Err: err}
		}
	}

	budget := sym.LoadTimeout(defaultBudget)
	loadCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	start := time.Now()
	handle, err := s.loader.Load(loadCtx, g.Library(i), sym.ID, sym.Config)
	elapsed := time.Since(start)

	if err != nil {
		if stdErrors.Is(err, context.DeadlineExceeded) || loadCtx.Err() == context.DeadlineExceeded {
			timeoutErr := &errors.LoadTimeoutError{SymbolID: sym.ID, Budget: budget}
			s.config.logger.Error("symbol load timed out", "symbol", sym.ID, "budget", budget)
			return LoadResult{SymbolID: sym.ID, State: StateUnavailable, Err: timeoutErr, Elapsed: elapsed}
		}
		loadErr := &errors.LoadError{SymbolID: sym.ID, Path: g.Library(i), Err: err}
		s.config.logger.Error("symbol load failed", "symbol", sym.ID, "err", err)
		return LoadResult{SymbolID: sym.ID, State: StateUnavailable, Err: loadErr, Elapsed: elapsed}
	}

	s.config.logger.Info("symbol loaded", "symbol", sym.ID, "elapsed", elapsed)
	return LoadResult{SymbolID: sym.ID, State: StateLoaded, Handle: handle, Elapsed: elapsed}
}

// topoOrder runs Kahn's algorithm over the dependency edges. Symbols with no
// unresolved predecessors come first, in declaration order. Any leftover
// node sits on (or downstream of) a cycle, which is fatal.
func topoOrder(g *graph.Graph) ([]int, error) {
	n := g.Len()
	indegree := make([]int, n)
	for i := 0; i < n; i++ {
		deps, _ := g.Dependencies(i)
		indegree[i] = len(deps)
	}
	dependents := g.Dependents()

	var queue []int
	for i := 0; i < n; i++ {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, i)
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) < n {
		var cyclic []string
		for i := 0; i < n; i++ {
			if indegree[i] > 0 {
				cyclic = append(cyclic, g.Symbol(i).ID)
			}
		}
		return nil, &errors.CycleError{SymbolIDs: cyclic}
	}
	return order, nil
}
