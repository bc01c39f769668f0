// Package perf keeps a bounded in-memory record of request, query and
// identity-provider timings for the platform perf endpoint.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
	// KindProvider is one session resolution against the identity provider.
	KindProvider
)

func (k EntryKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	case KindProvider:
		return "provider"
	}
	return "unknown"
}

// Entry is a single timing record.
type Entry struct {
	Kind EntryKind
	// Label is "METHOD /path" for requests, "VERB table" for queries and the
	// resolver strategy for provider calls.
	Label      string
	Status     int
	DurationMs float64
	At         time.Time
}

// Collector is a fixed-size ring buffer of entries. When full the oldest
// entries are overwritten; aggregation happens only in Snapshot.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	size    int
	pos     int
	count   [3]atomic.Int64
}

// NewCollector creates a collector holding at most size entries.
// PRE: size > 0, otherwise DefaultRingSize is used
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Record stores e, overwriting the oldest entry when the buffer is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % c.size
	c.mu.Unlock()
	if int(e.Kind) < len(c.count) {
		c.count[e.Kind].Add(1)
	}
}

// TotalRecorded returns how many entries were ever recorded, across kinds.
func (c *Collector) TotalRecorded() int64 {
	var n int64
	for i := range c.count {
		n += c.count[i].Load()
	}
	return n
}

// Recorded returns how many entries of kind were ever recorded.
func (c *Collector) Recorded(kind EntryKind) int64 {
	if int(kind) >= len(c.count) {
		return 0
	}
	return c.count[kind].Load()
}

// Snapshot is the aggregated view served as JSON by the perf endpoint.
type Snapshot struct {
	Since            time.Time   `json:"since"`
	TotalRequests    int64       `json:"total_requests"`
	TotalQueries     int64       `json:"total_queries"`
	TotalProvider    int64       `json:"total_provider_calls"`
	RequestP50Ms     float64     `json:"request_p50_ms"`
	RequestP95Ms     float64     `json:"request_p95_ms"`
	RequestP99Ms     float64     `json:"request_p99_ms"`
	ProviderP95Ms    float64     `json:"provider_p95_ms"`
	SlowestPaths     []LabelStat `json:"slowest_paths"`
	SlowestQueries   []LabelStat `json:"slowest_queries"`
	ServerErrorCount int         `json:"server_error_count"`
}

// LabelStat aggregates the entries sharing one label.
type LabelStat struct {
	Label   string  `json:"label"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	Count   int     `json:"count"`
	TotalMs float64 `json:"total_ms"`
}

// Snapshot aggregates entries recorded at or after since. Totals count every
// entry ever recorded; percentiles and top-N lists only the window.
// POST: SlowestPaths and SlowestQueries hold at most topN items, slowest average first
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, c.size)
	copy(buf, c.entries)
	c.mu.Unlock()

	var requestDurations, providerDurations []float64
	requestStats := make(map[string]*LabelStat)
	queryStats := make(map[string]*LabelStat)
	snap := Snapshot{
		Since:         since,
		TotalRequests: c.Recorded(KindRequest),
		TotalQueries:  c.Recorded(KindQuery),
		TotalProvider: c.Recorded(KindProvider),
	}

	for _, e := range buf {
		if e.At.IsZero() || e.At.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			requestDurations = append(requestDurations, e.DurationMs)
			accumulate(requestStats, e)
			if e.Status >= 500 {
				snap.ServerErrorCount++
			}
		case KindQuery:
			accumulate(queryStats, e)
		case KindProvider:
			providerDurations = append(providerDurations, e.DurationMs)
		}
	}

	snap.SlowestPaths = topByAvg(requestStats, topN)
	snap.SlowestQueries = topByAvg(queryStats, topN)
	if len(requestDurations) > 0 {
		sort.Float64s(requestDurations)
		snap.RequestP50Ms = percentile(requestDurations, 50)
		snap.RequestP95Ms = percentile(requestDurations, 95)
		snap.RequestP99Ms = percentile(requestDurations, 99)
	}
	if len(providerDurations) > 0 {
		sort.Float64s(providerDurations)
		snap.ProviderP95Ms = percentile(providerDurations, 95)
	}
	return snap
}

func accumulate(stats map[string]*LabelStat, e Entry) {
	s, ok := stats[e.Label]
	if !ok {
		s = &LabelStat{Label: e.Label}
		stats[e.Label] = s
	}
	s.Count++
	s.TotalMs += e.DurationMs
	s.MaxMs = max(s.MaxMs, e.DurationMs)
	s.AvgMs = s.TotalMs / float64(s.Count)
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func topByAvg(stats map[string]*LabelStat, n int) []LabelStat {
	list := make([]LabelStat, 0, len(stats))
	for _, s := range stats {
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Label < list[j].Label
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if n >= 0 && len(list) > n {
		list = list[:n]
	}
	return list
}
