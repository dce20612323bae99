// Package events provides the event bus used to publish navigation, prefetch,
// and upload activity to whatever frontend hosts the document panel. The bus
// is deliberately frontend-agnostic: the CLI, the web panel bindings, and
// tests all consume the same channels.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/lenderdesk/docnav/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventLog   EventType = "log"
	EventError EventType = "error"

	// Navigation events
	EventViewSwitched  EventType = "view_switched"  // View mode changed, path reset
	EventFolderOpened  EventType = "folder_opened"  // A folder rendered (any tier)
	EventCountsPatched EventType = "counts_patched" // Template counts re-derived from cache

	// Prefetch events
	EventPrefetchCompleted EventType = "prefetch_completed" // A background batch drained

	// Upload events
	EventUploadCompleted EventType = "upload_completed"  // One file finished (ok or failed)
	EventUploadBatchDone EventType = "upload_batch_done" // Whole batch finished, view re-resolved
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// LogEvent represents log messages routed to frontends
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	Error   error
}

// ErrorEvent represents non-fatal errors (failed fetches, failed uploads)
type ErrorEvent struct {
	BaseEvent
	Stage string // "template", "resolve", "prefetch", "upload"
	Path  string
	Error error
}

// ViewSwitchedEvent is published when the hierarchy view changes.
type ViewSwitchedEvent struct {
	BaseEvent
	View string
}

// FolderOpenedEvent is published after every successful render.
// Source identifies which resolution tier produced the listing.
type FolderOpenedEvent struct {
	BaseEvent
	Path        string
	Source      string // "cache", "template", "remote"
	FolderCount int
	FileCount   int
}

// CountsPatchedEvent is published when template tile counts were re-derived.
type CountsPatchedEvent struct {
	BaseEvent
	Patched int // number of template entries whose count changed
}

// PrefetchCompletedEvent summarizes one background prefetch batch.
type PrefetchCompletedEvent struct {
	BaseEvent
	Parent   string // path whose children were prefetched
	Fetched  int
	Skipped  int // already cached or already in flight
	Failed   int
	Duration time.Duration
}

// UploadEvent reports completion of a single file upload.
type UploadEvent struct {
	BaseEvent
	Name     string
	Category string
	Size     int64
	Error    error
}

// UploadBatchDoneEvent reports completion of a whole upload batch.
type UploadBatchDoneEvent struct {
	BaseEvent
	Category string
	Uploaded int
	Failed   int
	Duration time.Duration
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Non-blocking: a full subscriber
// buffer drops the event rather than stalling the publisher, since publishes
// happen on navigation and prefetch completion paths.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// DroppedEvents returns the number of events dropped due to full buffers.
func (eb *EventBus) DroppedEvents() int64 {
	return eb.droppedEvents.Load()
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}
	for _, ch := range eb.all {
		close(ch)
	}

	eb.subscribers = make(map[EventType][]chan Event)
	eb.all = nil
}

// Now returns a BaseEvent for the given type stamped with the current time.
func Now(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}
