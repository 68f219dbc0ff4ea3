package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryDelay(t *testing.T) {
	assert.Equal(t, 10*time.Second, retryDelay(0))
	assert.Equal(t, 20*time.Second, retryDelay(1))
	assert.Equal(t, 160*time.Second, retryDelay(4))
	assert.Equal(t, time.Hour, retryDelay(9))
	assert.Equal(t, time.Hour, retryDelay(50))
}
