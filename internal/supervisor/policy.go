package supervisor

import "time"

// RestartPolicy decides whether a crashed worker should be relaunched and
// how long to wait before doing so. failures counts consecutive crashes
// since the last healthy check; elapsed is the time since the first of them.
type RestartPolicy interface {
	ShouldRestart(failures int, elapsed time.Duration) bool
	DelayBeforeRestart() time.Duration
}

// AlwaysRestart relaunches after every crash with a fixed delay.
type AlwaysRestart struct {
	Delay time.Duration
}

func (a AlwaysRestart) ShouldRestart(int, time.Duration) bool { return true }

func (a AlwaysRestart) DelayBeforeRestart() time.Duration {
	if a.Delay <= 0 {
		return 2 * time.Second
	}
	return a.Delay
}

// BoundedRestart gives up after Max consecutive crashes inside Window.
// A zero Window means the failure count alone is considered.
type BoundedRestart struct {
	Max    int
	Window time.Duration
	Delay  time.Duration
}

func (b BoundedRestart) ShouldRestart(failures int, elapsed time.Duration) bool {
	if b.Max <= 0 {
		return true
	}
	if b.Window > 0 && elapsed > b.Window {
		return true
	}
	return failures < b.Max
}

func (b BoundedRestart) DelayBeforeRestart() time.Duration {
	if b.Delay <= 0 {
		return 2 * time.Second
	}
	return b.Delay
}
