package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientLimiter_EnforcesBurst(t *testing.T) {
	cl := newClientLimiter(1, 2)

	assert.True(t, cl.allow("emp-1"))
	assert.True(t, cl.allow("emp-1"))
	assert.False(t, cl.allow("emp-1"))

	// Other clients have their own bucket.
	assert.True(t, cl.allow("emp-2"))
}

func TestClientLimiter_SweepsStaleBucketsOnRequestPath(t *testing.T) {
	// GIVEN: Two buckets, one idle past the retention window
	cl := newClientLimiter(1, 1)
	cl.allow("emp-1")
	cl.allow("emp-2")
	cl.clients["emp-1"].seen = time.Now().Add(-11 * time.Minute)
	cl.nextSweep = time.Now().Add(-time.Second)

	// WHEN: Any request arrives after the sweep deadline
	cl.allow("emp-2")

	// THEN: The stale bucket is gone, the live one stays
	assert.NotContains(t, cl.clients, "emp-1")
	assert.Contains(t, cl.clients, "emp-2")
}
