package diag

import "sync"

// LimiterOptions configures a Limiter.
type LimiterOptions struct {
	// DuplicateLimit is the number of times a given rule ID is forwarded
	// before further reports of it are dropped. Zero means unlimited.
	DuplicateLimit int

	// Filter lists rule IDs that are never forwarded.
	Filter []string
}

// Limiter is a sink that throttles repeated rule IDs and drops filtered
// ones before forwarding to the next sink. Validators never deduplicate;
// this is the place where an application opts in to it.
type Limiter struct {
	next   Sink
	limit  int
	filter map[string]bool

	mu      sync.Mutex
	counts  map[string]int
	dropped int
}

// NewLimiter returns a Limiter forwarding to next.
func NewLimiter(next Sink, opts LimiterOptions) *Limiter {
	filter := make(map[string]bool, len(opts.Filter))
	for _, id := range opts.Filter {
		filter[id] = true
	}
	return &Limiter{
		next:   next,
		limit:  opts.DuplicateLimit,
		filter: filter,
		counts: make(map[string]int),
	}
}

// Report forwards v unless it is filtered or over the duplicate limit.
func (l *Limiter) Report(v Violation) {
	if l.filter[v.ID] {
		l.mu.Lock()
		l.dropped++
		l.mu.Unlock()
		return
	}

	l.mu.Lock()
	if l.limit > 0 && l.counts[v.ID] >= l.limit {
		l.dropped++
		l.mu.Unlock()
		return
	}
	l.counts[v.ID]++
	l.mu.Unlock()

	l.next.Report(v)
}

// Dropped returns how many violations were suppressed.
func (l *Limiter) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}
