package app

import "sync"

// Reporter receives build status lines.
type Reporter interface {
	// Progress reports a step that is starting.
	Progress(msg string)
	// Success reports a completed item.
	Success(msg string)
	// Failure reports a failed item. The build may continue.
	Failure(err error)
}

// NopReporter discards all status lines.
type NopReporter struct{}

func (NopReporter) Progress(string) {}
func (NopReporter) Success(string)  {}
func (NopReporter) Failure(error)   {}

// lockedReporter serializes status lines from concurrent workers. Its mutex
// is the output lock of one build.
type lockedReporter struct {
	mu sync.Mutex
	r  Reporter
}

func newLockedReporter(r Reporter) *lockedReporter {
	if r == nil {
		r = NopReporter{}
	}
	return &lockedReporter{r: r}
}

func (l *lockedReporter) Progress(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Progress(msg)
}

func (l *lockedReporter) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Success(msg)
}

func (l *lockedReporter) Failure(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Failure(err)
}
