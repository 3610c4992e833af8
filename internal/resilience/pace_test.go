package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSleep(t *testing.T) {
	start := time.Now()
	assert.NoError(t, Sleep(context.Background(), 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	assert.NoError(t, Sleep(context.Background(), 0))
}

func TestSleep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestPacer_DelaysAfterFailure(t *testing.T) {
	p := Pacer{Delay: 10 * time.Millisecond}
	start := time.Now()
	err := p.After(context.Background(), func() error { return errors.New("lookup failed") })
	assert.EqualError(t, err, "lookup failed")
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}
