package challenge_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverrun-dev/riverrun/domain/entities"
	rrerrors "github.com/riverrun-dev/riverrun/domain/errors"
	"github.com/riverrun-dev/riverrun/domain/ports"
	"github.com/riverrun-dev/riverrun/infrastructure/challenge"
)

const capPin = entities.Capability("xrn:gateway:capability:usergrant:pinchallenge")

// challengeHandle answers challenges; plainHandle only loads.
type challengeHandle struct {
	id     string
	answer bool
	delay  time.Duration
}

func (h *challengeHandle) SymbolID() string              { return h.id }
func (h *challengeHandle) Close(_ context.Context) error { return nil }

func (h *challengeHandle) Challenge(ctx context.Context, _ entities.Capability, _ map[string]any) (bool, error) {
	if h.delay > 0 {
		select {
		case <-time.After(h.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return h.answer, nil
}

type plainHandle struct {
	id string
}

func (h *plainHandle) SymbolID() string              { return h.id }
func (h *plainHandle) Close(_ context.Context) error { return nil }

type fakeResolver struct {
	symbols map[string]string // contract -> symbol id
	handles map[string]ports.ModuleHandle
}

func (r *fakeResolver) Resolve(contract string) (entities.Symbol, error) {
	id, ok := r.symbols[contract]
	if !ok {
		return entities.Symbol{}, rrerrors.ErrNotFound
	}
	return entities.Symbol{ID: id}, nil
}

func (r *fakeResolver) Handle(symbolID string) (ports.ModuleHandle, bool) {
	h, ok := r.handles[symbolID]
	return h, ok
}

func TestInvokeDispatchesToFulfillingSymbol(t *testing.T) {
	resolver := &fakeResolver{
		symbols: map[string]string{string(capPin): "pin_provider"},
		handles: map[string]ports.ModuleHandle{"pin_provider": &challengeHandle{id: "pin_provider", answer: true}},
	}
	invoker := challenge.NewExtensionInvoker(resolver)

	passed, err := invoker.Invoke(context.Background(), capPin, map[string]any{"pinSpace": "purchase"})
	require.NoError(t, err)
	assert.True(t, passed)
}

func TestInvokeUnresolvedCapability(t *testing.T) {
	invoker := challenge.NewExtensionInvoker(&fakeResolver{})

	_, err := invoker.Invoke(context.Background(), capPin, nil)

	var challengeErr *rrerrors.ChallengeError
	require.ErrorAs(t, err, &challengeErr)
	assert.Equal(t, capPin, challengeErr.Capability)
}

func TestInvokeProviderWithoutChallengeEntryPoint(t *testing.T) {
	resolver := &fakeResolver{
		symbols: map[string]string{string(capPin): "mute_provider"},
		handles: map[string]ports.ModuleHandle{"mute_provider": &plainHandle{id: "mute_provider"}},
	}
	invoker := challenge.NewExtensionInvoker(resolver)

	_, err := invoker.Invoke(context.Background(), capPin, nil)
	assert.Error(t, err)
}

func TestInvokeTimesOutSlowChallenge(t *testing.T) {
	resolver := &fakeResolver{
		symbols: map[string]string{string(capPin): "pin_provider"},
		handles: map[string]ports.ModuleHandle{"pin_provider": &challengeHandle{id: "pin_provider", answer: true, delay: time.Second}},
	}
	invoker := challenge.NewExtensionInvoker(resolver, challenge.WithChallengeTimeout(20*time.Millisecond))

	_, err := invoker.Invoke(context.Background(), capPin, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded,
		"the deadline must stay visible so the policy engine can classify the denial")
}
