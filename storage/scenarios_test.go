package storage

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// These specs walk concrete end-to-end eviction scenarios as
// BDD-style descriptions, using onsi/ginkgo and onsi/gomega for
// cache/victim-finder-adjacent scenario suites.

var _ = Describe("LRUKReplacer", func() {
	// num_frames=7, k=2. Accesses 1,2,3,4,1,2,3,4,5,6, all marked
	// evictable. Eviction order is 5, then 6, then 1.
	Describe("basic eviction order", func() {
		It("evicts the coldest frames first, then the oldest finite-distance frame", func() {
			r := NewLRUKReplacer(7, 2)

			for _, f := range []int{1, 2, 3, 4, 1, 2, 3, 4, 5, 6} {
				r.RecordAccess(f, 0, AccessGet)
				r.SetEvictable(f, true)
			}

			Expect(r.Size()).To(Equal(6))

			first, ok := r.Evict()
			Expect(ok).To(BeTrue())
			Expect(first).To(Equal(5))

			second, ok := r.Evict()
			Expect(ok).To(BeTrue())
			Expect(second).To(Equal(6))

			third, ok := r.Evict()
			Expect(ok).To(BeTrue())
			Expect(third).To(Equal(1))
		})
	})

	// Access 1, pin it; access 2, mark evictable. Evict returns 2.
	Describe("pin protection", func() {
		It("never evicts a pinned frame even if it is older", func() {
			r := NewLRUKReplacer(7, 2)

			r.RecordAccess(1, 0, AccessGet)
			r.SetEvictable(1, false)

			r.RecordAccess(2, 0, AccessGet)
			r.SetEvictable(2, true)

			victim, ok := r.Evict()
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(2))
		})
	})
})

var _ = Describe("ArcReplacer", func() {
	// num_frames=3. Record frames 0,1,2 (pages 100,101,102), mark
	// all evictable. mru_target_size is 0 so mru is preferred; the
	// back-to-front scan evicts frame 0 first.
	Describe("recency promotes to frequency", func() {
		It("evicts from mru when mru exceeds its target size", func() {
			r := NewArcReplacer(3)

			r.RecordAccess(0, 100, AccessGet)
			r.SetEvictable(0, true)
			r.RecordAccess(1, 101, AccessGet)
			r.SetEvictable(1, true)
			r.RecordAccess(2, 102, AccessGet)
			r.SetEvictable(2, true)

			Expect(r.MRULen()).To(Equal(3))
			Expect(r.MFULen()).To(Equal(0))
			Expect(r.MRUTargetSize()).To(Equal(0))

			victim, ok := r.Evict()
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(0))
			Expect(r.MRUGhostLen()).To(Equal(1))
		})

		// Continuing the previous scenario, re-accessing page 100 (now
		// in mru_ghost) raises mru_target_size to 1 and lands the frame
		// at the front of mfu, non-evictable.
		It("adapts mru_target_size up on a ghost hit and promotes into mfu", func() {
			r := NewArcReplacer(3)

			r.RecordAccess(0, 100, AccessGet)
			r.SetEvictable(0, true)
			r.RecordAccess(1, 101, AccessGet)
			r.SetEvictable(1, true)
			r.RecordAccess(2, 102, AccessGet)
			r.SetEvictable(2, true)
			r.Evict()

			r.RecordAccess(0, 100, AccessGet)

			Expect(r.MRUTargetSize()).To(Equal(1))
			Expect(r.MRULen()).To(Equal(2))
			Expect(r.MFULen()).To(Equal(1))
		})
	})

	// num_frames=2. Record (0,A),(1,B); pin 0, mark 1 evictable.
	// mru_target_size is 0 so the preferred side is mru; the
	// back-to-front scan skips pinned frame 0 and evicts frame 1.
	Describe("skip-pinned eviction", func() {
		It("skips a pinned frame in the preferred side and evicts the next one", func() {
			r := NewArcReplacer(2)

			r.RecordAccess(0, 100, AccessGet)
			r.SetEvictable(0, false)
			r.RecordAccess(1, 200, AccessGet)
			r.SetEvictable(1, true)

			Expect(r.MRULen()).To(Equal(2))
			Expect(r.MRUTargetSize()).To(Equal(0))

			victim, ok := r.Evict()
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(1))
		})
	})

	// num_frames=2. Two evictions from mru build
	// mru_ghost=[pB, pA] (pB most-recently evicted). A third eviction,
	// after a new page is inserted into the freed frame, briefly grows
	// mru_ghost to three entries and then trims the tail (pA). A
	// later re-access of pA is therefore a full miss, not a ghost hit.
	Describe("ghost overflow", func() {
		It("trims the oldest ghost entry once the ghost list exceeds num_frames", func() {
			r := NewArcReplacer(2)

			r.RecordAccess(0, 100, AccessGet) // pA
			r.SetEvictable(0, true)
			r.RecordAccess(1, 200, AccessGet) // pB
			r.SetEvictable(1, true)

			victim, ok := r.Evict() // evicts pA -> mru_ghost=[pA]
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(0))

			r.RecordAccess(0, 300, AccessGet) // pC, reuses frame 0
			r.SetEvictable(0, true)

			victim, ok = r.Evict() // evicts pB -> mru_ghost=[pB, pA]
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(1))
			Expect(r.MRUGhostLen()).To(Equal(2))

			r.RecordAccess(1, 400, AccessGet) // pD, reuses frame 1
			r.SetEvictable(1, true)

			victim, ok = r.Evict() // evicts pC -> ghost overflows to 3, trims pA
			Expect(ok).To(BeTrue())
			Expect(victim).To(Equal(0))
			Expect(r.MRUGhostLen()).To(Equal(2))

			targetBefore := r.MRUTargetSize()
			r.RecordAccess(0, 100, AccessGet) // re-access pA: full miss, not a ghost hit
			Expect(r.MRUTargetSize()).To(Equal(targetBefore))
			Expect(r.MRULen()).To(BeNumerically(">", 0))
		})
	})

	Describe("invariants", func() {
		It("keeps ghost lists bounded by num_frames and alive/ghost disjoint on page id", func() {
			numFrames := 3
			r := NewArcReplacer(numFrames)

			for i := 0; i < numFrames*4; i++ {
				frameID := i % numFrames
				r.RecordAccess(frameID, uint64(i+1), AccessGet)
				r.SetEvictable(frameID, true)
				r.Evict()
			}

			Expect(r.MRUGhostLen()).To(BeNumerically("<=", numFrames))
			Expect(r.MFUGhostLen()).To(BeNumerically("<=", numFrames))
			Expect(r.MRUTargetSize()).To(BeNumerically(">=", 0))
			Expect(r.MRUTargetSize()).To(BeNumerically("<=", numFrames))
		})
	})
})
