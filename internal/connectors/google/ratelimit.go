package google

import (
	"time"

	"github.com/custodia-labs/sercha-sync/internal/connectors/throttle"
)

// Per-user quotas are 10 requests a second for Drive; Cloud Storage list
// and get calls tolerate more.
var (
	DriveLimits   = throttle.Limits{PerSecond: 8, Burst: 10}
	StorageLimits = throttle.Limits{PerSecond: 20, Burst: 40}
)

// Observe pauses t when err is a throttled response and returns err
// mapped onto the domain errors.
func Observe(t *throttle.Throttle, err error) error {
	if err != nil && IsRateLimited(err) {
		t.Pause(time.Duration(RetryAfter(err)) * time.Second)
	}
	return WrapError(err)
}
