// Package registry holds the process-wide, ordered collection of
// currently connected instances (local TCP clients), their bound channel,
// outbound queue, configuration, and counters.
//
// Instances are long-lived and low-cardinality, with channel-keyed lookup
// rather than random broadcast, so a single sync.RWMutex guarding an
// ordered slice is enough: no sharding, and removal is by pointer identity
// rather than a synthetic handle.
package registry

import (
	"sync"
	"sync/atomic"

	"octoshim/internal/wire"
)

// Stats is a read-only snapshot of one instance's counters.
type Stats struct {
	IP           string
	NumMessages  uint64
	TotalBytes   uint64
}

// Outbound is implemented by a connection's per-instance unbounded queue.
// Send enqueues req for delivery to the TCP peer in enqueue order and
// returns false if the queue has already been closed (its connection is
// tearing down), in which case the caller should skip that record and
// continue broadcasting to the others.
type Outbound interface {
	Send(req *wire.Request) bool
}

// Record is one live TCP connection's shared state. The peer address and
// outbound queue are immutable for the life of the record; bound channel and related configuration are independently
// atomic so the dispatcher (inside the reader) and the router (concurrent
// readers) never contend on a lock for them.
type Record struct {
	PeerAddr string
	Outbound Outbound

	boundChannel    atomic.Uint64
	commandPrefix   atomic.Pointer[string]
	cycleTime       atomic.Int32
	presenceEnabled atomic.Bool

	numMessages atomic.Uint64
	totalBytes  atomic.Uint64
}

// NewRecord returns a Record with bound_channel unconfigured (0) and the
// given outbound queue.
func NewRecord(peerAddr string, outbound Outbound) *Record {
	r := &Record{PeerAddr: peerAddr, Outbound: outbound}
	empty := ""
	r.commandPrefix.Store(&empty)
	return r
}

// BoundChannel returns the instance's currently configured chat channel,
// or 0 if it has not yet sent a Settings frame.
func (r *Record) BoundChannel() uint64 { return r.boundChannel.Load() }

// ApplySettings atomically updates the record's configuration. Called by
// the inbound dispatcher on a Settings Response.
func (r *Record) ApplySettings(s *wire.Settings) {
	r.boundChannel.Store(s.ChannelID)
	prefix := s.CommandPrefix
	r.commandPrefix.Store(&prefix)
	r.cycleTime.Store(s.CycleTime)
	r.presenceEnabled.Store(s.PresenceEnabled)
}

// CommandPrefix returns the instance's currently configured prefix.
func (r *Record) CommandPrefix() string { return *r.commandPrefix.Load() }

// CycleTime returns the instance's currently configured cycle time.
func (r *Record) CycleTime() int32 { return r.cycleTime.Load() }

// PresenceEnabled returns whether this instance wants per-instance
// presence updates applied.
func (r *Record) PresenceEnabled() bool { return r.presenceEnabled.Load() }

// RecordFrame increments the message/byte counters. Called by the
// connection's reader loop only (single writer), so plain atomics
// suffice for the monotonically non-decreasing counters invariant.
func (r *Record) RecordFrame(byteLen int) {
	r.numMessages.Add(1)
	r.totalBytes.Add(uint64(byteLen))
}

func (r *Record) stats() Stats {
	return Stats{
		IP:          r.PeerAddr,
		NumMessages: r.numMessages.Load(),
		TotalBytes:  r.totalBytes.Load(),
	}
}

// Registry is the ordered collection of live instances. Writers
// (Register/Unregister) are rare; readers (BroadcastToChannel, Count,
// SnapshotStats) are frequent, which is exactly the access pattern a
// sync.RWMutex is for.
type Registry struct {
	mu      sync.RWMutex
	records []*Record

	onChange func(count int)
	onDrop   func(n int)
}

// New returns an empty Registry. onChange, if non-nil, is invoked after
// every Register/Unregister with the new live count — used to drive the
// presence updater.
func New(onChange func(count int)) *Registry {
	return &Registry{onChange: onChange}
}

// SetOnChange replaces the registry's change callback. Used when the
// callback's dependencies (e.g. the presence updater) can only be
// constructed after the registry itself, breaking an otherwise circular
// construction order.
func (reg *Registry) SetOnChange(onChange func(count int)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.onChange = onChange
}

// SetOnDrop installs a callback invoked with the number of fan-out sends
// skipped in one BroadcastToChannel call because their target's queue was
// already closed — used to drive the broadcast_dropped metric.
func (reg *Registry) SetOnDrop(onDrop func(n int)) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.onDrop = onDrop
}

// Register inserts rec at the front of the registry and returns rec itself,
// which also serves as the handle to Unregister later.
func (reg *Registry) Register(rec *Record) *Record {
	reg.mu.Lock()
	reg.records = append([]*Record{rec}, reg.records...)
	count := len(reg.records)
	reg.mu.Unlock()

	if reg.onChange != nil {
		reg.onChange(count)
	}
	return rec
}

// Unregister removes the exact record (pointer identity, not equality).
// Idempotent: removing an already-absent record is a no-op.
func (reg *Registry) Unregister(rec *Record) {
	reg.mu.Lock()
	count := -1
	for i, r := range reg.records {
		if r == rec {
			reg.records = append(reg.records[:i], reg.records[i+1:]...)
			count = len(reg.records)
			break
		}
	}
	reg.mu.Unlock()

	if count >= 0 && reg.onChange != nil {
		reg.onChange(count)
	}
}

// BroadcastToChannel enqueues req on the outbound queue of every record
// whose bound channel equals channelID, skipping channelID == 0 (meaning
// "unconfigured instances are never fan-out targets") and skipping any
// record whose queue has already been closed by its connection tearing
// down. It returns the number of records the request was actually
// enqueued on; skipped closed queues are not counted.
func (reg *Registry) BroadcastToChannel(channelID uint64, req *wire.Request) int {
	if channelID == 0 {
		return 0
	}

	reg.mu.RLock()
	targets := make([]*Record, 0, len(reg.records))
	for _, r := range reg.records {
		if r.BoundChannel() == channelID {
			targets = append(targets, r)
		}
	}
	reg.mu.RUnlock()

	delivered := 0
	for _, r := range targets {
		if r.Outbound.Send(req) {
			delivered++
		}
	}

	if dropped := len(targets) - delivered; dropped > 0 {
		reg.mu.RLock()
		onDrop := reg.onDrop
		reg.mu.RUnlock()
		if onDrop != nil {
			onDrop(dropped)
		}
	}
	return delivered
}

// SnapshotStats returns a point-in-time copy of every record's stats, in
// registry order.
func (reg *Registry) SnapshotStats() []Stats {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Stats, len(reg.records))
	for i, r := range reg.records {
		out[i] = r.stats()
	}
	return out
}

// Count returns the number of currently registered instances.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.records)
}
