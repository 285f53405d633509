package storage

import (
	"log/slog"
)

// infiniteDistance marks a frame with fewer than k recorded accesses:
// a backward k-distance of +infinity, cold and preferred for eviction
// over any frame with a finite distance.
const infiniteDistance = -1

// lrukNode is the per-frame tracking state kept by LRUKReplacer.
// history is a bounded FIFO of up to k timestamps, oldest first.
type lrukNode struct {
	frameID   int
	history   []int64
	evictable bool
}

// oldest returns the least-recent timestamp still in history (used
// both for the k-th-most-recent distance and for tie-breaking).
func (n *lrukNode) oldest() int64 {
	return n.history[0]
}

// distance reports n's backward k-distance at logical time now, and
// whether it is finite.
func (n *lrukNode) distance(now int64, k int) (dist int64, finite bool) {
	if len(n.history) < k {
		return infiniteDistance, false
	}
	return now - n.oldest(), true
}

// pushTimestamp appends ts to history, dropping the oldest entry once
// history already holds k timestamps.
func (n *lrukNode) pushTimestamp(ts int64, k int) {
	if len(n.history) >= k {
		n.history = n.history[1:]
	}
	n.history = append(n.history, ts)
}

// LRUKReplacer implements the backward-k-distance replacement policy:
// a frame seen fewer than k times is always preferred for eviction
// over one with a full k-deep history, and among frames in the same
// bucket ties are broken by the oldest surviving timestamp.
type LRUKReplacer struct {
	latch *RWLatch

	k             int
	numFrames     int
	currTimestamp int64
	currSize      int

	nodeStore map[int]*lrukNode

	logger  *slog.Logger
	metrics *Metrics
}

// NewLRUKReplacer creates an LRU-K replacer for up to numFrames
// resident frames, tracking up to k accesses per frame.
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	if k <= 0 {
		k = 1
	}
	return &LRUKReplacer{
		latch:     NewRWLatch(),
		k:         k,
		numFrames: numFrames,
		nodeStore: make(map[int]*lrukNode),
		logger:    slog.Default(),
		metrics:   NewMetrics(),
	}
}

// SetLogger overrides the replacer's structured logger.
func (r *LRUKReplacer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Metrics returns the replacer's metrics collector.
func (r *LRUKReplacer) Metrics() *Metrics {
	return r.metrics
}

// RecordAccess advances the logical clock and records an access to
// frameID. pageID is accepted for interface symmetry with ArcReplacer
// but ignored: LRU-K's eviction order depends only on frame-local
// access history. A newly tracked frame starts non-evictable.
func (r *LRUKReplacer) RecordAccess(frameID int, pageID uint64, accessType AccessType) {
	assertValidFrameID("LRUKReplacer.RecordAccess", frameID, r.numFrames)

	r.latch.Lock()
	defer r.latch.Unlock()

	r.currTimestamp++

	node, ok := r.nodeStore[frameID]
	if !ok {
		node = &lrukNode{frameID: frameID}
		r.nodeStore[frameID] = node
		r.metrics.RecordCacheMiss()
	} else {
		r.metrics.RecordCacheHit()
	}
	node.pushTimestamp(r.currTimestamp, r.k)
}

// SetEvictable flips frameID's evictable flag, adjusting Size by ±1.
// A no-op if frameID is untracked or already at the requested state.
func (r *LRUKReplacer) SetEvictable(frameID int, evictable bool) {
	assertValidFrameID("LRUKReplacer.SetEvictable", frameID, r.numFrames)

	r.latch.Lock()
	defer r.latch.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok || node.evictable == evictable {
		return
	}

	node.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Remove erases frameID's tracking state. A no-op if untracked; fails
// with ErrNotEvictable if frameID is tracked but pinned.
func (r *LRUKReplacer) Remove(frameID int) error {
	assertValidFrameID("LRUKReplacer.Remove", frameID, r.numFrames)

	r.latch.Lock()
	defer r.latch.Unlock()

	node, ok := r.nodeStore[frameID]
	if !ok {
		return nil
	}
	if !node.evictable {
		r.logger.Warn("remove called on non-evictable frame", "frame_id", frameID)
		return ErrNotEvictable("LRUKReplacer.Remove", frameID)
	}

	delete(r.nodeStore, frameID)
	r.currSize--
	return nil
}

// Evict selects the victim among evictable frames:
//
//  1. any frame with +infinity distance outranks any frame with a
//     finite distance;
//  2. among +infinity frames, the smallest oldest-timestamp wins;
//  3. among finite frames, the largest distance wins, ties broken by
//     the smallest oldest-timestamp.
//
// The node store is a map, whose iteration order Go leaves
// unspecified, so the tie-break is applied explicitly rather than
// relying on iteration order.
func (r *LRUKReplacer) Evict() (int, bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	var (
		haveVictim     bool
		victimID       int
		victimFinite   bool
		victimDistance int64
		victimOldest   int64
	)

	for frameID, node := range r.nodeStore {
		if !node.evictable {
			continue
		}

		dist, finite := node.distance(r.currTimestamp, r.k)
		oldest := node.oldest()

		if !haveVictim {
			haveVictim, victimID, victimFinite, victimDistance, victimOldest = true, frameID, finite, dist, oldest
			continue
		}

		if better, tie := lrukBeats(finite, dist, oldest, victimFinite, victimDistance, victimOldest); better || (tie && frameID < victimID) {
			victimID, victimFinite, victimDistance, victimOldest = frameID, finite, dist, oldest
		}
	}

	if !haveVictim {
		return 0, false
	}

	delete(r.nodeStore, victimID)
	r.currSize--
	r.metrics.RecordPageEviction()
	r.logger.Debug("evicted frame", "frame_id", victimID, "finite_distance", victimFinite)
	return victimID, true
}

// lrukBeats reports whether candidate (finite/dist/oldest) outranks
// the current victim for eviction, and whether they are exactly tied
// (same bucket, same oldest timestamp). Callers use the tie flag
// together with a deterministic fallback (smallest frame id) so that
// Evict's result never depends on map iteration order.
func lrukBeats(candFinite bool, candDist, candOldest int64, bestFinite bool, bestDist, bestOldest int64) (better, tie bool) {
	// Infinite-distance frames always beat finite-distance ones.
	if !candFinite && bestFinite {
		return true, false
	}
	if candFinite && !bestFinite {
		return false, false
	}

	if !candFinite {
		// Both infinite: smaller oldest timestamp wins.
		if candOldest < bestOldest {
			return true, false
		}
		if candOldest > bestOldest {
			return false, false
		}
		return false, true
	}

	// Both finite: larger distance wins; ties broken by smaller oldest.
	if candDist > bestDist {
		return true, false
	}
	if candDist < bestDist {
		return false, false
	}
	if candOldest < bestOldest {
		return true, false
	}
	if candOldest > bestOldest {
		return false, false
	}
	return false, true
}

// Size returns the number of currently tracked, evictable frames.
func (r *LRUKReplacer) Size() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.currSize
}
