package ingest

import (
	"testing"
	"time"
)

// FreezeClock pins the ingestion clock for the duration of a test.
func FreezeClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}
