package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromMillis(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, FromMillis(500))
	assert.Equal(t, time.Second, FromMillis(1000))
	assert.Equal(t, time.Duration(0), FromMillis(0))
	assert.Equal(t, time.Duration(0), FromMillis(-10))
}

func TestSeconds(t *testing.T) {
	assert.InDelta(t, 1.5, Seconds(1500*time.Millisecond), 1e-12)
	assert.InDelta(t, 0.000000001, Seconds(time.Nanosecond), 1e-15)
	assert.Zero(t, Seconds(0))
}
