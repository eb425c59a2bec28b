package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const jobLockPrefix = "job:lock:"

// JobLock keeps a job from starting again before its interval has elapsed.
type JobLock struct {
	client redis.Cmdable
}

func NewJobLock(client redis.Cmdable) *JobLock {
	return &JobLock{client: client}
}

// Acquire reports whether the caller may run job now. The lock is never released
// early: it expires after interval.
func (l *JobLock) Acquire(ctx context.Context, job string, interval time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, jobLockPrefix+job, time.Now().UTC().Format(time.RFC3339), interval).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock for %s: %w", job, err)
	}
	return ok, nil
}
