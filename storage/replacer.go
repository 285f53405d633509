package storage

// AccessType is accepted by RecordAccess and ignored by the core
// policy. It exists so the Replacer interface can carry the
// information a future policy might want without changing the
// signature again.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessGet
	AccessScan
)

// Replacer is the abstract policy surface the buffer-pool manager
// uses to decide which resident frame to evict. LRU-K and ARC are
// the two concrete implementations; every method is safe for
// concurrent use and none of them block on anything but the
// replacer's own internal latch.
type Replacer interface {
	// RecordAccess registers an access to frameID, creating tracking
	// state for it if this is the first time it has been seen (or the
	// first time since its last Remove/Evict). New frames start
	// non-evictable.
	RecordAccess(frameID int, pageID uint64, accessType AccessType)

	// SetEvictable flips frameID's evictable flag. A no-op if frameID
	// is untracked or already at the requested state.
	SetEvictable(frameID int, evictable bool)

	// Remove erases frameID's tracking state. A no-op if frameID is
	// untracked; fails with ErrNotEvictable if frameID is tracked but
	// not evictable.
	Remove(frameID int) error

	// Evict selects and removes a victim frame among the evictable
	// ones, returning its frame id. ok is false iff no frame is
	// currently evictable.
	Evict() (frameID int, ok bool)

	// Size returns the number of currently tracked, evictable frames.
	Size() int
}

// NewReplacer constructs a Replacer for the named policy ("lru-k" or
// "arc"). numFrames is the capacity bound shared by both policies; k
// is only meaningful for "lru-k" and is ignored otherwise.
func NewReplacer(policy string, numFrames, k int) Replacer {
	switch policy {
	case "arc":
		return NewArcReplacer(numFrames)
	case "lru-k":
		return NewLRUKReplacer(numFrames, k)
	default:
		return NewLRUKReplacer(numFrames, k)
	}
}
