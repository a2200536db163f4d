// Package vma models the process's virtual-memory-area interval
// structure that the real kernel consults via find_vma
// (original_source/arch/x86/kernel/tlmm.c's get_unmapped_reserve). It
// backs Process.Reserve's search for a disjoint TLMM slot.
//
// biscuit/src/vm/as.go references a Vmregion_t that this retrieval pack
// does not include the definition of; this package is this module's own
// restatement of that concept, backed by github.com/google/btree (a
// direct dependency of the maxnasonov-gvisor retrieval pack) instead of
// a hand-rolled interval tree, the way the real kernel's VMA structure
// is itself a red-black tree.
package vma

import "github.com/google/btree"

// Range is a half-open virtual address interval [Start, End).
type Range struct {
	Start uintptr
	End   uintptr
}

func (r Range) btreeItem() item {
	return item{start: r.Start, end: r.End}
}

type item struct {
	start uintptr
	end   uintptr
}

// Less implements btree.Item, ordering VMAs by their start address.
func (a item) Less(than btree.Item) bool {
	return a.start < than.(item).start
}

// Set is the set of live VMAs for one address space. A zero Set is
// ready to use.
type Set struct {
	tree *btree.BTree
}

const btreeDegree = 32

func (s *Set) ensure() *btree.BTree {
	if s.tree == nil {
		s.tree = btree.New(btreeDegree)
	}
	return s.tree
}

// Overlaps reports whether any VMA intersects the half-open range
// [start, end).
func (s *Set) Overlaps(start, end uintptr) bool {
	if s.tree == nil {
		return false
	}
	overlap := false

	// The VMA starting at or before `start`, if any: overlaps iff it
	// extends past `start`.
	s.tree.DescendLessOrEqual(item{start: start}, func(i btree.Item) bool {
		it := i.(item)
		if it.end > start {
			overlap = true
		}
		return false
	})
	if overlap {
		return true
	}

	// The first VMA starting at or after `start`: overlaps iff it
	// starts before `end`.
	s.tree.AscendGreaterOrEqual(item{start: start}, func(i btree.Item) bool {
		it := i.(item)
		if it.start < end {
			overlap = true
		}
		return false
	})
	return overlap
}

// Insert records a new VMA spanning [start, end). It panics if the
// range overlaps an existing VMA. Process.RegisterVMA calls it under
// the address-space lock without checking Overlaps first, so an
// overlapping registration panics there too.
func (s *Set) Insert(start, end uintptr) {
	if s.Overlaps(start, end) {
		panic("vma: overlapping insert")
	}
	s.ensure().ReplaceOrInsert(item{start: start, end: end})
}

// Remove deletes the VMA starting at start, if present.
func (s *Set) Remove(start uintptr) {
	if s.tree == nil {
		return
	}
	s.tree.Delete(item{start: start})
}

// Lookup returns the VMA containing addr, if any.
func (s *Set) Lookup(addr uintptr) (Range, bool) {
	if s.tree == nil {
		return Range{}, false
	}
	var found Range
	ok := false
	s.tree.DescendLessOrEqual(item{start: addr}, func(i btree.Item) bool {
		it := i.(item)
		if it.start <= addr && addr < it.end {
			found = Range{Start: it.start, End: it.end}
			ok = true
		}
		return false
	})
	return found, ok
}
