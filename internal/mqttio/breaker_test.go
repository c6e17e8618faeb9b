package mqttio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPublishBreaker_OpensAfterThreshold(t *testing.T) {
	b := newPublishBreaker(3, time.Hour)

	for i := 0; i < 2; i++ {
		b.failure()
		assert.True(t, b.allow(), "below threshold after %d failures", i+1)
	}
	b.failure()
	assert.False(t, b.allow(), "open after reaching threshold")
}

func TestPublishBreaker_SuccessCloses(t *testing.T) {
	b := newPublishBreaker(2, time.Hour)
	b.failure()
	b.failure()
	assert.False(t, b.allow())

	b.success()
	assert.True(t, b.allow())
}

func TestPublishBreaker_CooldownAllowsProbe(t *testing.T) {
	b := newPublishBreaker(1, 20*time.Millisecond)
	b.failure()
	assert.False(t, b.allow())

	time.Sleep(30 * time.Millisecond)
	assert.True(t, b.allow(), "cooldown elapsed, probe permitted")
}

func TestPublishBreaker_MinimumThreshold(t *testing.T) {
	b := newPublishBreaker(0, time.Hour)
	assert.True(t, b.allow())
	b.failure()
	assert.False(t, b.allow(), "threshold clamps to 1")
}
