package constants

import (
	"time"
)

// HTTP client tuning
const (
	// HTTPDialTimeout - TCP connect timeout
	HTTPDialTimeout = 30 * time.Second

	// HTTPDialKeepAlive - TCP keep-alive interval
	HTTPDialKeepAlive = 30 * time.Second

	// HTTPIdleConnTimeout - how long idle connections stay in the pool
	HTTPIdleConnTimeout = 90 * time.Second

	// HTTPTLSHandshakeTimeout - extended for slow corporate networks
	HTTPTLSHandshakeTimeout = 30 * time.Second

	// HTTPExpectContinueTimeout - for HTTP 100-continue on uploads
	HTTPExpectContinueTimeout = 5 * time.Second

	// HTTPRequestTimeout - per-request ceiling for folder listings and uploads.
	// Folder listings are small; this mostly bounds uploads over slow links.
	HTTPRequestTimeout = 300 * time.Second
)

// Retry configuration for the folder-service client
const (
	// RetryMax - maximum retry attempts on transient errors (11 total attempts)
	RetryMax = 10

	// RetryWaitMin - initial backoff delay
	RetryWaitMin = 1 * time.Second

	// RetryWaitMax - backoff cap
	RetryWaitMax = 30 * time.Second
)

// Folder-service API rate limiting.
//
// The document endpoints share one per-user scope on the platform side
// (3600/hour = 1 req/sec). We target 80% of the limit to leave headroom for
// the web UI making calls under the same user.
const (
	// FolderServiceRatePerSec - steady-state request rate (80% of 1 req/sec)
	FolderServiceRatePerSec = 0.8

	// FolderServiceBurstCapacity - burst tokens; covers an initial template
	// fetch plus one full prefetch wave without throttling
	FolderServiceBurstCapacity = 40
)

// Event bus buffer sizes
const (
	// EventBusDefaultBuffer - per-subscriber channel buffer
	EventBusDefaultBuffer = 1000

	// EventBusMaxBuffer - cap on caller-requested buffer sizes
	EventBusMaxBuffer = 10000
)

// Prefetch tuning
const (
	// PrefetchWorkers - concurrent background listing fetches per batch.
	// Folder listings are small; the limit exists to keep burst pressure on
	// the shared rate-limit scope bounded, not to protect memory.
	PrefetchWorkers = 4
)
