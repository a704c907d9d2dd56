// Package id provides centralized ID generation for the coordination core.
//
// IDs are prefixed ULIDs: lexicographically sortable, collision-free, and
// readable in logs (wrk_*, evt_*, tmp_*). Worker IDs produced here satisfy
// the worker manager's global-uniqueness admission requirement, though
// callers may supply their own as long as they stay unique among active
// workers.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// WorkerID identifies a background task instance
type WorkerID string

// EventID identifies a single dispatched event
type EventID string

// TempID identifies a tracked temporary resource
type TempID string

// TraceID identifies one request trace
type TraceID string

const (
	WorkerPrefix = "wrk"
	EventPrefix  = "evt"
	TempPrefix   = "tmp"
	TracePrefix  = "trc"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewWorkerID generates a new worker ID
func NewWorkerID() WorkerID {
	return WorkerID(Default().GenerateWithPrefix(WorkerPrefix))
}

// NewEventID generates a new event ID
func NewEventID() EventID {
	return EventID(Default().GenerateWithPrefix(EventPrefix))
}

// NewTempID generates a new temp-resource ID
func NewTempID() TempID {
	return TempID(Default().GenerateWithPrefix(TempPrefix))
}

// NewTraceID generates a new request trace ID
func NewTraceID() TraceID {
	return TraceID(Default().GenerateWithPrefix(TracePrefix))
}

func (id WorkerID) String() string { return string(id) }
func (id EventID) String() string  { return string(id) }
func (id TempID) String() string   { return string(id) }
func (id TraceID) String() string  { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the creation time from a raw ULID string
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
