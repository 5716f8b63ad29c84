package ports

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	name string
	err  error
}

func (s *stubChecker) Name() string                  { return s.name }
func (s *stubChecker) Check(_ context.Context) error { return s.err }

type blockingChecker struct {
	name string
}

func (b *blockingChecker) Name() string { return b.name }

func (b *blockingChecker) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		return nil
	}
}

func TestRegister_RejectsDuplicateNames(t *testing.T) {
	registry := NewHealthRegistry()

	require.NoError(t, registry.Register(&stubChecker{name: "bolt"}))
	require.NoError(t, registry.Register(&stubChecker{name: "token-introspection"}))

	err := registry.Register(&stubChecker{name: "bolt"})

	require.ErrorIs(t, err, ErrDuplicateChecker)
	assert.Contains(t, err.Error(), "bolt")
}

func TestCheckAll_Empty(t *testing.T) {
	result := NewHealthRegistry().CheckAll(context.Background())

	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Empty(t, result.Checks)
	assert.False(t, result.Timestamp.IsZero())
}

func TestCheckAll_MixedResults(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&stubChecker{name: "firestore"}))
	require.NoError(t, registry.Register(&stubChecker{name: "token-introspection", err: errors.New("connection refused")}))

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	require.Len(t, result.Checks, 2)
	assert.Equal(t, HealthStatusHealthy, result.Checks["firestore"].Status)
	assert.Empty(t, result.Checks["firestore"].Message)
	assert.Equal(t, HealthStatusUnhealthy, result.Checks["token-introspection"].Status)
	assert.Equal(t, "connection refused", result.Checks["token-introspection"].Message)
}

func TestCheckAll_RunsEveryCheckerWithLimit(t *testing.T) {
	registry := NewHealthRegistry()

	var calls atomic.Int32

	for i := range maxConcurrentChecks * 2 {
		require.NoError(t, registry.Register(&countingChecker{name: string(rune('a' + i)), calls: &calls}))
	}

	result := registry.CheckAll(context.Background())

	assert.Equal(t, HealthStatusHealthy, result.Status)
	assert.Len(t, result.Checks, maxConcurrentChecks*2)
	assert.Equal(t, int32(maxConcurrentChecks*2), calls.Load())
}

func TestCheckAll_HonorsCanceledContext(t *testing.T) {
	registry := NewHealthRegistry()
	require.NoError(t, registry.Register(&blockingChecker{name: "bolt"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := registry.CheckAll(ctx)

	assert.Equal(t, HealthStatusUnhealthy, result.Status)
	assert.Contains(t, result.Checks["bolt"].Message, "context canceled")
}

type countingChecker struct {
	name  string
	calls *atomic.Int32
}

func (c *countingChecker) Name() string { return c.name }

func (c *countingChecker) Check(_ context.Context) error {
	c.calls.Add(1)
	return nil
}
