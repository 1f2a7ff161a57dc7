package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("*/5 * * * *"))
	assert.NoError(t, Validate("0 3 * * 1"))
	assert.Error(t, Validate("every five minutes"))
	assert.Error(t, Validate("* * * *"))
}

func TestRunRejectsBadSpec(t *testing.T) {
	err := Run(context.Background(), "nope", "task", func(ctx context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, "*/5 * * * *", "task", func(ctx context.Context) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
