// Command riverrun is the device-side application gateway host: it loads the
// extension manifest, sequences extension symbol loads over the wazero
// runtime, and arbitrates capability use through the grant policy engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/domain/policy"
	"github.com/riverrun-dev/riverrun/host"
	"github.com/riverrun-dev/riverrun/host/registry"
	"github.com/riverrun-dev/riverrun/hostconfig"
	"github.com/riverrun-dev/riverrun/infrastructure/challenge"
	"github.com/riverrun-dev/riverrun/infrastructure/eventbus"
	"github.com/riverrun-dev/riverrun/infrastructure/grantstore"
	"github.com/riverrun-dev/riverrun/infrastructure/parser"
	"github.com/riverrun-dev/riverrun/infrastructure/wazero"
)

// gateway holds the wired host collaborators. The RPC transport dispatches
// through it once attached.
type gateway struct {
	extensions *host.Engine
	grants     *policy.Engine
	store      *grantstore.MemoryStore
	bus        *eventbus.Bus
}

// pinChallengeConfig is the step configuration shape for pinchallenge.
type pinChallengeConfig struct {
	PinSpace string `json:"pinSpace" jsonschema:"enum=purchase,enum=content"`
}

// ackChallengeConfig is the step configuration shape for
// acknowledgechallenge. It carries no parameters.
type ackChallengeConfig struct{}

func main() {
	if err := run(); err != nil {
		slog.Error("gateway failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := hostconfig.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rawManifest, err := os.ReadFile(cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	rawDevice, err := os.ReadFile(cfg.DevicePath)
	if err != nil {
		return fmt.Errorf("read device manifest: %w", err)
	}

	docs := parser.NewYAMLParser()
	device, err := docs.ParseDevice(rawDevice)
	if err != nil {
		return &errors.ParseError{Document: "device", Err: err}
	}

	reg, err := registry.New(device)
	if err != nil {
		return err
	}
	if err := reg.RegisterChallenge("pinchallenge", &pinChallengeConfig{}); err != nil {
		return err
	}
	if err := reg.RegisterChallenge("acknowledgechallenge", &ackChallengeConfig{}); err != nil {
		return err
	}
	if err := reg.ValidatePolicies(); err != nil {
		return err
	}

	loader, err := wazero.NewLoader(ctx)
	if err != nil {
		return fmt.Errorf("create module loader: %w", err)
	}
	defer loader.Close(context.Background())

	extensions := host.NewEngine(
		host.WithParser(docs),
		host.WithModuleLoader(loader),
		host.WithLogger(logger),
	)
	if err := extensions.Start(ctx, rawManifest); err != nil {
		return err
	}
	defer extensions.Close(context.Background())

	persister := grantstore.NewFileStore(grantstore.WithPath(cfg.GrantStorePath))
	store, err := grantstore.NewMemoryStore(
		grantstore.WithPersister(persister),
		grantstore.WithStoreLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("open grant store: %w", err)
	}

	bus := eventbus.New()
	defer store.Attach(bus)()

	grants := policy.NewEngine(reg,
		challenge.NewExtensionInvoker(extensions, challenge.WithInvokerLogger(logger)),
		store,
		policy.WithExclusions(policy.NewExclusions(device.Configuration.Exclusory)),
		policy.WithEngineLogger(logger),
	)

	gw := &gateway{extensions: extensions, grants: grants, store: store, bus: bus}
	logger.Info("gateway ready",
		"symbols", len(gw.extensions.Report().Order),
		"capabilities", len(reg.List()))

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
