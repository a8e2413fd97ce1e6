// Package globaltime is the process clock. Tests pin it with SetMockTime.
package globaltime

import (
	"sync/atomic"
	"time"
)

type clockFunc func() time.Time

var clock atomic.Pointer[clockFunc]

func init() {
	ResetTime()
}

func Now() time.Time {
	return (*clock.Load())()
}

func UTC() time.Time {
	return Now().UTC()
}

// Since reports the elapsed time against the process clock.
func Since(t time.Time) time.Duration {
	return Now().Sub(t)
}

func SetMockTime(t time.Time) {
	fn := clockFunc(func() time.Time { return t })
	clock.Store(&fn)
}

func ResetTime() {
	fn := clockFunc(time.Now)
	clock.Store(&fn)
}
