// Package stream fans encoded frames out to HTTP viewers as a
// multipart/x-mixed-replace (MJPEG) response.
package stream

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/cubeface/internal/metrics"
	"github.com/banshee-data/cubeface/internal/monitoring"
)

// Subscriber receives the most recent frame only. A viewer that falls
// behind loses intermediate frames instead of stalling the producer.
type Subscriber struct {
	ID     string
	Joined time.Time

	ch    chan []byte
	sent  atomic.Uint64
	drops atomic.Uint64
}

// C returns the channel frames are delivered on. It is closed on
// Unsubscribe or hub Close.
func (s *Subscriber) C() <-chan []byte { return s.ch }

// SubscriberStats describes one connected viewer.
type SubscriberStats struct {
	ID     string    `json:"id"`
	Joined time.Time `json:"joined"`
	Sent   uint64    `json:"sent"`
	Drops  uint64    `json:"drops"`
}

// Stats describes the hub.
type Stats struct {
	Clients     int               `json:"clients"`
	Frames      uint64            `json:"frames"`
	Drops       uint64            `json:"drops"`
	LatestBytes int               `json:"latest_bytes"`
	Subscribers []SubscriberStats `json:"subscribers"`
}

// Hub distributes frames from a single producer to any number of viewers.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]*Subscriber
	latest []byte
	closed bool

	frames atomic.Uint64
	drops  atomic.Uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]*Subscriber)}
}

// Broadcast hands jpeg to every subscriber without blocking. When a
// subscriber has not consumed its previous frame that frame is replaced
// and counted as a drop. The slice must not be modified afterwards.
func (h *Hub) Broadcast(jpeg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest = jpeg
	h.frames.Add(1)

	for _, s := range h.subs {
		select {
		case s.ch <- jpeg:
			continue
		default:
		}
		// full: discard the stale frame and retry once
		select {
		case <-s.ch:
			s.drops.Add(1)
			h.drops.Add(1)
			metrics.StreamDrops.Inc()
		default:
		}
		select {
		case s.ch <- jpeg:
		default:
		}
	}
}

// Subscribe registers a viewer. If a frame has already been broadcast the
// viewer receives it immediately.
func (h *Hub) Subscribe() *Subscriber {
	s := &Subscriber{
		ID:     uuid.NewString(),
		Joined: time.Now(),
		ch:     make(chan []byte, 1),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	if h.latest != nil {
		s.ch <- h.latest
	}
	h.subs[s.ID] = s
	metrics.StreamClients.Set(float64(len(h.subs)))
	return s
}

// Unsubscribe removes a viewer and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		close(s.ch)
		delete(h.subs, id)
		metrics.StreamClients.Set(float64(len(h.subs)))
	}
}

// Latest returns the most recent frame, or nil before the first.
func (h *Hub) Latest() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.latest
}

// Close disconnects every viewer. Later broadcasts are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, s := range h.subs {
		close(s.ch)
		delete(h.subs, id)
	}
	metrics.StreamClients.Set(0)
}

// Stats returns counters for the hub and each viewer.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := Stats{
		Clients:     len(h.subs),
		Frames:      h.frames.Load(),
		Drops:       h.drops.Load(),
		LatestBytes: len(h.latest),
		Subscribers: make([]SubscriberStats, 0, len(h.subs)),
	}
	for _, s := range h.subs {
		st.Subscribers = append(st.Subscribers, SubscriberStats{
			ID:     s.ID,
			Joined: s.Joined,
			Sent:   s.sent.Load(),
			Drops:  s.drops.Load(),
		})
	}
	return st
}

var logf = monitoring.Prefixed("stream: ")
