// Package snapshot publishes the latest smoothed face grid and center
// category to concurrent readers.
//
// A single producer calls Publish once per processed frame; any number of
// readers call Read. Each publish stores one atomic pointer to an immutable
// Snapshot, so neither side ever waits on the other and a reader sees either the previous snapshot or the new
// one in full, never a grid from one frame paired with the category of
// another.
package snapshot

import (
	"sync/atomic"
	"time"

	"github.com/banshee-data/cubeface/internal/colorclass"
	"github.com/banshee-data/cubeface/internal/facegrid"
)

// Snapshot is the published state. Values returned by Read must be treated
// as read-only.
type Snapshot struct {
	Grid     facegrid.Grid
	Category colorclass.Category
	// Seq counts publishes; the default snapshot has Seq 0.
	Seq uint64
	// CapturedAt is the timestamp of the frame the grid came from.
	CapturedAt time.Time
}

// Default is the snapshot served before anything has been published: an
// all-zero grid classified as Unknown.
func Default() Snapshot {
	return Snapshot{Category: colorclass.Unknown}
}

// Publisher holds the latest snapshot.
type Publisher struct {
	latest atomic.Pointer[Snapshot]
}

// NewPublisher returns a publisher serving the default snapshot.
func NewPublisher() *Publisher {
	p := &Publisher{}
	d := Default()
	p.latest.Store(&d)
	return p
}

// Publish replaces the current snapshot with (g, c) and returns the stored
// value. Only the capture goroutine should call it.
func (p *Publisher) Publish(g facegrid.Grid, c colorclass.Category, capturedAt time.Time) Snapshot {
	next := &Snapshot{
		Grid:       g,
		Category:   c,
		Seq:        p.latest.Load().Seq + 1,
		CapturedAt: capturedAt,
	}
	p.latest.Store(next)
	return *next
}

// Read returns the most recently published snapshot.
func (p *Publisher) Read() Snapshot {
	return *p.latest.Load()
}
