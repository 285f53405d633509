package storage

import (
	"fmt"
	"log/slog"
	"sync"
)

// PageStore is the minimal persistence surface FrameTable needs from
// whatever sits below it. A real buffer pool manager would plug in a
// DiskManager here; FrameTable is deliberately built against an
// interface so it never has to know about disk pages, mmap files, or
// WAL segments.
type PageStore interface {
	// Load returns the bytes for pageID, or ok=false if it has never
	// been stored.
	Load(pageID uint64) (data []byte, ok bool)
	// Store persists data under pageID.
	Store(pageID uint64, data []byte)
}

// MemPageStore is a PageStore backed by an in-memory map, a stand-in
// for a real disk manager, good enough to drive FrameTable end to end
// in tests without any I/O.
type MemPageStore struct {
	mu    sync.RWMutex
	pages map[uint64][]byte
}

// NewMemPageStore creates an empty in-memory page store.
func NewMemPageStore() *MemPageStore {
	return &MemPageStore{pages: make(map[uint64][]byte)}
}

func (s *MemPageStore) Load(pageID uint64) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.pages[pageID]
	return data, ok
}

func (s *MemPageStore) Store(pageID uint64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[pageID] = data
}

// Frame is a resident page slot: the in-memory analogue of the
// teacher's Page type, trimmed to drop disk-flush and slotted-page
// concerns that belong to the excluded storage engine.
type Frame struct {
	pageID   uint64
	pinCount int32
	dirty    bool
	data     []byte
}

// PageID returns the resident page's id.
func (f *Frame) PageID() uint64 { return f.pageID }

// PinCount returns the frame's current pin count.
func (f *Frame) PinCount() int32 { return f.pinCount }

// IsDirty reports whether the frame has unflushed writes.
func (f *Frame) IsDirty() bool { return f.dirty }

// Data returns the frame's resident bytes.
func (f *Frame) Data() []byte { return f.data }

// FrameTable is the buffer-pool manager that sits above the replacer:
// it owns the frame array, translates pin/unpin transitions into
// RecordAccess/SetEvictable calls, and asks the replacer for a victim
// when every frame is full. It is backed by PageStore instead of a
// DiskManager, since standing up real disk I/O would pull in a whole
// disk-scheduler collaborator this component has no need for.
type FrameTable struct {
	mu sync.Mutex

	frames    []*Frame // nil entry means the slot is free
	pageTable map[uint64]int // pageID -> frame index

	replacer Replacer
	store    PageStore
	logger   *slog.Logger
}

// NewFrameTable creates a FrameTable of numFrames slots, backed by the
// named replacement policy ("lru-k" or "arc") and the given PageStore.
func NewFrameTable(numFrames, k int, policy string, store PageStore) *FrameTable {
	return &FrameTable{
		frames:    make([]*Frame, numFrames),
		pageTable: make(map[uint64]int),
		replacer:  NewReplacer(policy, numFrames, k),
		store:     store,
		logger:    slog.Default(),
	}
}

// SetLogger overrides the frame table's structured logger.
func (ft *FrameTable) SetLogger(logger *slog.Logger) {
	if logger != nil {
		ft.logger = logger
	}
}

// Replacer exposes the underlying replacer, mostly for tests that want
// to assert on Size()/metrics directly.
func (ft *FrameTable) Replacer() Replacer {
	return ft.replacer
}

// FetchPage pins pageID, loading it from the store and evicting a
// victim frame if the table is full. The returned Frame must be
// released with UnpinPage once the caller is done with it.
func (ft *FrameTable) FetchPage(pageID uint64) (*Frame, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if frameID, ok := ft.pageTable[pageID]; ok {
		frame := ft.frames[frameID]
		frame.pinCount++
		ft.replacer.RecordAccess(frameID, pageID, AccessGet)
		ft.replacer.SetEvictable(frameID, false)
		return frame, nil
	}

	frameID, err := ft.getFrameID()
	if err != nil {
		return nil, err
	}

	data, _ := ft.store.Load(pageID)
	frame := &Frame{pageID: pageID, pinCount: 1, data: data}
	ft.frames[frameID] = frame
	ft.pageTable[pageID] = frameID

	ft.replacer.RecordAccess(frameID, pageID, AccessGet)
	ft.replacer.SetEvictable(frameID, false)

	return frame, nil
}

// UnpinPage decrements pageID's pin count, optionally marking it
// dirty, and makes it evictable once no pins remain.
func (ft *FrameTable) UnpinPage(pageID uint64, dirty bool) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	frameID, ok := ft.pageTable[pageID]
	if !ok {
		return fmt.Errorf("UnpinPage: page %d not resident", pageID)
	}

	frame := ft.frames[frameID]
	if frame.pinCount > 0 {
		frame.pinCount--
	}
	if dirty {
		frame.dirty = true
	}

	if frame.pinCount == 0 {
		ft.replacer.SetEvictable(frameID, true)
	}
	return nil
}

// FlushPage persists a dirty frame's data back to the store.
func (ft *FrameTable) FlushPage(pageID uint64) error {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	frameID, ok := ft.pageTable[pageID]
	if !ok {
		return fmt.Errorf("FlushPage: page %d not resident", pageID)
	}

	frame := ft.frames[frameID]
	ft.store.Store(pageID, frame.data)
	frame.dirty = false
	return nil
}

// getFrameID returns a free frame index, evicting a victim via the
// replacer if the table is full. Caller must hold ft.mu.
func (ft *FrameTable) getFrameID() (int, error) {
	for i, f := range ft.frames {
		if f == nil {
			return i, nil
		}
	}

	victimFrameID, ok := ft.replacer.Evict()
	if !ok {
		return 0, fmt.Errorf("getFrameID: no evictable frame, table is full of pinned pages")
	}

	victim := ft.frames[victimFrameID]
	if victim.dirty {
		ft.store.Store(victim.pageID, victim.data)
	}
	delete(ft.pageTable, victim.pageID)
	ft.frames[victimFrameID] = nil

	ft.logger.Debug("evicted frame to make room", "frame_id", victimFrameID, "page_id", victim.pageID)
	return victimFrameID, nil
}
