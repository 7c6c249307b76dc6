package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	PagesCrawled       map[string]uint64 `json:"pages_crawled"`
	ListingsSeen       uint64            `json:"listings_seen"`
	JobsExtracted      uint64            `json:"jobs_extracted"`
	ApplicationsQueued uint64            `json:"applications_queued"`
	Duplicates         uint64            `json:"duplicates"`
	AICalls            uint64            `json:"ai_calls"`
	AIFallbacks        uint64            `json:"ai_fallbacks"`
	SessionsRun        uint64            `json:"sessions_run"`
	SessionsFailed     uint64            `json:"sessions_failed"`
	ErrorsTotal        uint64            `json:"errors_total"`
	SessionSecondsAvg  float64           `json:"session_seconds_avg"`
	ExtractionFailures map[string]uint64 `json:"extraction_failures,omitempty"`
	Rejections         map[string]uint64 `json:"rejections,omitempty"`
	Transitions        map[string]uint64 `json:"transitions,omitempty"`
	ErrorsByType       map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent  map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	listingsSeen       uint64
	jobsExtracted      uint64
	applicationsQueued uint64
	duplicates         uint64
	aiCalls            uint64
	aiFallbacks        uint64
	sessionsRun        uint64
	sessionsFailed     uint64
	errorsTotal        uint64

	sessionCount uint64
	sessionNanos uint64

	statsMu            sync.Mutex
	pagesCrawled       = map[string]uint64{}
	extractionFailures = map[string]uint64{}
	rejections         = map[string]uint64{}
	transitions        = map[string]uint64{}
	errorsByType       = map[string]uint64{}
	errorsByComponent  = map[string]uint64{}
)

func IncPagesCrawled(kind string) {
	incKeyed(pagesCrawled, kind)
}

func IncListingsSeen() {
	atomic.AddUint64(&listingsSeen, 1)
}

func IncJobsExtracted() {
	atomic.AddUint64(&jobsExtracted, 1)
}

func IncApplicationsQueued() {
	atomic.AddUint64(&applicationsQueued, 1)
}

func IncDuplicates() {
	atomic.AddUint64(&duplicates, 1)
}

func IncAICall() {
	atomic.AddUint64(&aiCalls, 1)
}

func IncAIFallback() {
	atomic.AddUint64(&aiFallbacks, 1)
}

func IncExtractionFailure(field string) {
	incKeyed(extractionFailures, field)
}

func IncRejection(reason string) {
	incKeyed(rejections, reason)
}

func IncTransition(to string) {
	incKeyed(transitions, to)
}

// ObserveSession records one finished crawl session.
func ObserveSession(seconds float64, failed bool) {
	atomic.AddUint64(&sessionsRun, 1)
	if failed {
		atomic.AddUint64(&sessionsFailed, 1)
	}
	if seconds <= 0 {
		return
	}
	atomic.AddUint64(&sessionCount, 1)
	atomic.AddUint64(&sessionNanos, uint64(seconds*1e9))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func incKeyed(m map[string]uint64, key string) {
	if key == "" {
		key = "unknown"
	}
	statsMu.Lock()
	m[key]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	snap := StatsSnapshot{
		PagesCrawled:       copyMap(pagesCrawled),
		ExtractionFailures: copyMap(extractionFailures),
		Rejections:         copyMap(rejections),
		Transitions:        copyMap(transitions),
		ErrorsByType:       copyMap(errorsByType),
		ErrorsByComponent:  copyMap(errorsByComponent),
	}
	statsMu.Unlock()

	count := atomic.LoadUint64(&sessionCount)
	if count > 0 {
		snap.SessionSecondsAvg = float64(atomic.LoadUint64(&sessionNanos)) / float64(count) / 1e9
	}

	snap.ListingsSeen = atomic.LoadUint64(&listingsSeen)
	snap.JobsExtracted = atomic.LoadUint64(&jobsExtracted)
	snap.ApplicationsQueued = atomic.LoadUint64(&applicationsQueued)
	snap.Duplicates = atomic.LoadUint64(&duplicates)
	snap.AICalls = atomic.LoadUint64(&aiCalls)
	snap.AIFallbacks = atomic.LoadUint64(&aiFallbacks)
	snap.SessionsRun = atomic.LoadUint64(&sessionsRun)
	snap.SessionsFailed = atomic.LoadUint64(&sessionsFailed)
	snap.ErrorsTotal = atomic.LoadUint64(&errorsTotal)
	return snap
}

func copyMap(src map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
