package storage

import (
	"container/list"
	"log/slog"
)

// arcStatus tags which of ARC's four lists an entry currently belongs
// to. A single tagged enum is used instead of four separate
// list-membership booleans, since the transitions between them are
// the whole point of the algorithm.
type arcStatus int

const (
	statusMRU arcStatus = iota
	statusMFU
	statusMRUGhost
	statusMFUGhost
)

// arcAliveEntry is alive_map's value type: a resident frame's status.
type arcAliveEntry struct {
	frameID   int
	pageID    uint64
	evictable bool
	status    arcStatus
}

// arcGhostEntry is ghost_map's value type.
type arcGhostEntry struct {
	pageID uint64
	status arcStatus
}

// ArcReplacer implements the Adaptive Replacement Cache policy: two
// real lists (mru/T1, mfu/T2) holding resident frames and two ghost
// lists (mru_ghost/B1, mfu_ghost/B2) holding page ids recently evicted
// from each, with an adaptive target size for |mru| that shifts toward
// whichever side a ghost hit shows was evicted too eagerly.
type ArcReplacer struct {
	latch *RWLatch

	numFrames     int
	mruTargetSize int
	currSize      int

	mru *list.List // T1: frame ids, most-recent at front
	mfu *list.List // T2: frame ids, most-recent at front

	mruGhost *list.List // B1: page ids, most-recent at front
	mfuGhost *list.List // B2: page ids, most-recent at front

	mruElems map[int]*list.Element
	mfuElems map[int]*list.Element

	mruGhostElems map[uint64]*list.Element
	mfuGhostElems map[uint64]*list.Element

	aliveMap map[int]*arcAliveEntry
	ghostMap map[uint64]*arcGhostEntry

	logger  *slog.Logger
	metrics *Metrics
}

// NewArcReplacer creates an ARC replacer for up to numFrames resident
// frames. Each ghost list is independently bounded by numFrames.
func NewArcReplacer(numFrames int) *ArcReplacer {
	return &ArcReplacer{
		latch:         NewRWLatch(),
		numFrames:     numFrames,
		mru:           list.New(),
		mfu:           list.New(),
		mruGhost:      list.New(),
		mfuGhost:      list.New(),
		mruElems:      make(map[int]*list.Element),
		mfuElems:      make(map[int]*list.Element),
		mruGhostElems: make(map[uint64]*list.Element),
		mfuGhostElems: make(map[uint64]*list.Element),
		aliveMap:      make(map[int]*arcAliveEntry),
		ghostMap:      make(map[uint64]*arcGhostEntry),
		logger:        slog.Default(),
		metrics:       NewMetrics(),
	}
}

// SetLogger overrides the replacer's structured logger.
func (r *ArcReplacer) SetLogger(logger *slog.Logger) {
	if logger != nil {
		r.logger = logger
	}
}

// Metrics returns the replacer's metrics collector.
func (r *ArcReplacer) Metrics() *Metrics {
	return r.metrics
}

// RecordAccess dispatches on where pageID/frameID currently reside:
// a resident hit, a ghost hit against mru_ghost, a ghost hit against
// mfu_ghost, or a complete miss. It never evicts; ghost-list capacity
// enforcement is Evict's responsibility.
func (r *ArcReplacer) RecordAccess(frameID int, pageID uint64, accessType AccessType) {
	assertValidFrameID("ArcReplacer.RecordAccess", frameID, r.numFrames)

	r.latch.Lock()
	defer r.latch.Unlock()

	if entry, ok := r.aliveMap[frameID]; ok {
		// Case 1: hit in mru or mfu. Promote to front of mfu.
		r.promoteToMFU(frameID, entry)
		entry.pageID = pageID
		r.metrics.RecordCacheHit()
		return
	}

	if ghost, ok := r.ghostMap[pageID]; ok {
		if ghost.status == statusMRUGhost {
			r.adaptUpAndPromote(frameID, pageID)
		} else {
			r.adaptDownAndPromote(frameID, pageID)
		}
		r.metrics.RecordGhostHit()
		return
	}

	// Case 4: complete miss. New recency entry.
	elem := r.mru.PushFront(frameID)
	r.mruElems[frameID] = elem
	r.aliveMap[frameID] = &arcAliveEntry{frameID: frameID, pageID: pageID, status: statusMRU}
	r.metrics.RecordCacheMiss()
}

// promoteToMFU removes frameID from whichever real list it is in and
// re-inserts it at the front of mfu, marking it MFU.
func (r *ArcReplacer) promoteToMFU(frameID int, entry *arcAliveEntry) {
	switch entry.status {
	case statusMRU:
		elem := r.mruElems[frameID]
		r.mru.Remove(elem)
		delete(r.mruElems, frameID)
	case statusMFU:
		elem := r.mfuElems[frameID]
		r.mfu.Remove(elem)
		delete(r.mfuElems, frameID)
	}
	entry.status = statusMFU
	r.mfuElems[frameID] = r.mfu.PushFront(frameID)
}

// adaptUpAndPromote handles a ghost hit in mru_ghost (B1): it adapts
// mru_target_size upward, then lands the page at the front of mfu,
// non-evictable.
func (r *ArcReplacer) adaptUpAndPromote(frameID int, pageID uint64) {
	b1, b2 := r.mruGhost.Len(), r.mfuGhost.Len()
	delta := 1
	if b1 > 0 {
		delta = max(1, b2/b1)
	}
	r.mruTargetSize = min(r.numFrames, r.mruTargetSize+delta)

	r.removeFromGhost(r.mruGhost, r.mruGhostElems, pageID)

	elem := r.mfu.PushFront(frameID)
	r.mfuElems[frameID] = elem
	r.aliveMap[frameID] = &arcAliveEntry{frameID: frameID, pageID: pageID, status: statusMFU}

	r.logger.Debug("arc ghost hit adapted up", "page_id", pageID, "mru_target_size", r.mruTargetSize)
}

// adaptDownAndPromote handles a ghost hit in mfu_ghost (B2): it adapts
// mru_target_size downward, then lands the page at the front of mfu,
// non-evictable.
func (r *ArcReplacer) adaptDownAndPromote(frameID int, pageID uint64) {
	b1, b2 := r.mruGhost.Len(), r.mfuGhost.Len()
	delta := 1
	if b2 > 0 {
		delta = max(1, b1/b2)
	}
	r.mruTargetSize = max(0, r.mruTargetSize-delta)

	r.removeFromGhost(r.mfuGhost, r.mfuGhostElems, pageID)

	elem := r.mfu.PushFront(frameID)
	r.mfuElems[frameID] = elem
	r.aliveMap[frameID] = &arcAliveEntry{frameID: frameID, pageID: pageID, status: statusMFU}

	r.logger.Debug("arc ghost hit adapted down", "page_id", pageID, "mru_target_size", r.mruTargetSize)
}

// removeFromGhost splices pageID out of the given ghost list/map pair
// and erases its ghost_map entry.
func (r *ArcReplacer) removeFromGhost(lst *list.List, elems map[uint64]*list.Element, pageID uint64) {
	if elem, ok := elems[pageID]; ok {
		lst.Remove(elem)
		delete(elems, pageID)
	}
	delete(r.ghostMap, pageID)
}

// SetEvictable flips frameID's evictable flag, adjusting Size by ±1.
// A no-op if frameID is untracked or already at the requested state.
func (r *ArcReplacer) SetEvictable(frameID int, evictable bool) {
	assertValidFrameID("ArcReplacer.SetEvictable", frameID, r.numFrames)

	r.latch.Lock()
	defer r.latch.Unlock()

	entry, ok := r.aliveMap[frameID]
	if !ok || entry.evictable == evictable {
		return
	}
	entry.evictable = evictable
	if evictable {
		r.currSize++
	} else {
		r.currSize--
	}
}

// Remove erases frameID's alive tracking state, splicing it out of
// whichever real list currently holds it. Ghost entries are never
// touched by Remove; only Evict and a ghost-hit RecordAccess change
// ghost state. A no-op if
// untracked; fails with ErrNotEvictable if pinned.
func (r *ArcReplacer) Remove(frameID int) error {
	assertValidFrameID("ArcReplacer.Remove", frameID, r.numFrames)

	r.latch.Lock()
	defer r.latch.Unlock()

	entry, ok := r.aliveMap[frameID]
	if !ok {
		return nil
	}
	if !entry.evictable {
		r.logger.Warn("remove called on non-evictable frame", "frame_id", frameID)
		return ErrNotEvictable("ArcReplacer.Remove", frameID)
	}

	switch entry.status {
	case statusMRU:
		elem := r.mruElems[frameID]
		r.mru.Remove(elem)
		delete(r.mruElems, frameID)
	case statusMFU:
		elem := r.mfuElems[frameID]
		r.mfu.Remove(elem)
		delete(r.mfuElems, frameID)
	}
	delete(r.aliveMap, frameID)
	r.currSize--
	return nil
}

// Evict applies ARC's side-selection and scan rule: the preferred
// side is mru when |mru| exceeds mru_target_size, else mfu. Each side
// is scanned from its LRU end (the back of the list, since new
// entries are pushed to the front) toward the front for the first
// evictable entry, falling back to the other side if the preferred
// one has none.
func (r *ArcReplacer) Evict() (int, bool) {
	r.latch.Lock()
	defer r.latch.Unlock()

	preferMRU := r.mru.Len() > r.mruTargetSize

	if frameID, ok := r.evictFrom(preferMRU); ok {
		return frameID, true
	}
	if frameID, ok := r.evictFrom(!preferMRU); ok {
		return frameID, true
	}
	return 0, false
}

// evictFrom scans the mru side (if fromMRU) or mfu side for the first
// evictable entry from the back, removes it, and spawns a ghost entry
// on the matching side.
func (r *ArcReplacer) evictFrom(fromMRU bool) (int, bool) {
	lst, elems := r.mfu, r.mfuElems
	if fromMRU {
		lst, elems = r.mru, r.mruElems
	}

	for e := lst.Back(); e != nil; e = e.Prev() {
		frameID := e.Value.(int)
		entry := r.aliveMap[frameID]
		if !entry.evictable {
			continue
		}

		lst.Remove(e)
		delete(elems, frameID)
		delete(r.aliveMap, frameID)
		r.currSize--

		if fromMRU {
			r.pushGhost(r.mruGhost, r.mruGhostElems, entry.pageID, statusMRUGhost)
		} else {
			r.pushGhost(r.mfuGhost, r.mfuGhostElems, entry.pageID, statusMFUGhost)
		}

		r.metrics.RecordPageEviction()
		r.logger.Debug("arc evicted frame", "frame_id", frameID, "from_mru", fromMRU)
		return frameID, true
	}
	return 0, false
}

// pushGhost prepends pageID to the given ghost list, recording it in
// ghost_map, then trims the list's oldest (back) entry if it now
// exceeds numFrames.
func (r *ArcReplacer) pushGhost(lst *list.List, elems map[uint64]*list.Element, pageID uint64, status arcStatus) {
	elem := lst.PushFront(pageID)
	elems[pageID] = elem
	r.ghostMap[pageID] = &arcGhostEntry{pageID: pageID, status: status}

	if lst.Len() > r.numFrames {
		oldest := lst.Back()
		oldestPageID := oldest.Value.(uint64)
		lst.Remove(oldest)
		delete(elems, oldestPageID)
		delete(r.ghostMap, oldestPageID)
		r.logger.Debug("arc ghost list overflow trimmed", "page_id", oldestPageID, "status", status)
	}
}

// Size returns the number of currently resident, evictable frames.
func (r *ArcReplacer) Size() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.currSize
}

// MRULen returns |mru| (T1), for tests and diagnostics.
func (r *ArcReplacer) MRULen() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.mru.Len()
}

// MFULen returns |mfu| (T2), for tests and diagnostics.
func (r *ArcReplacer) MFULen() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.mfu.Len()
}

// MRUGhostLen returns |mru_ghost| (B1), for tests and diagnostics.
func (r *ArcReplacer) MRUGhostLen() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.mruGhost.Len()
}

// MFUGhostLen returns |mfu_ghost| (B2), for tests and diagnostics.
func (r *ArcReplacer) MFUGhostLen() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.mfuGhost.Len()
}

// MRUTargetSize returns the current adaptive target for |mru|.
func (r *ArcReplacer) MRUTargetSize() int {
	r.latch.Lock()
	defer r.latch.Unlock()
	return r.mruTargetSize
}
