package tlmm

import "github.com/biscuit-os/tlmm/pkg/mem"

// nptentries is the number of entries per page-map level, mirroring
// mem.Pmap_t's 512-entry x86-64 layout (NPTENTRIES in the original).
const nptentries = 512

// toplevel is the top page-map level; x86-64's 4-level tree has levels
// 3 (PML4-equivalent) down to 0 (the leaf page table), matching
// NPTLVLS in original_source/arch/x86/kernel/tlmm.c.
const toplevel = 3

// entry is one slot in a page-map node. Levels 3..1 use child to point
// at the next level down; level 0 uses page to name the leaf physical
// page. The original packs a physical address and flag bits into one
// machine word (ptent_t); since this module has no real physical
// address space to pack pointers into, the pointer and the flags are
// kept as separate fields, but the flag vocabulary (mem.PTE_P etc) and
// the present-bit gating are exactly the original's.
type entry struct {
	flags uintptr
	child *node
	page  mem.Page
}

func (e entry) present() bool { return e.flags&mem.PTE_P != 0 }

// node is one level of the four-level shadow or shared page map: a
// page-table-page's worth of entries, grounded on mem.Pmap_t.
type node struct {
	ent [nptentries]entry
}

// pdx extracts the index into a level-`level` node for virtual address
// addr, mirroring dmap.go's pgbits/shl helpers: 12 bits of page offset
// followed by 9 bits per level, levels numbered 3 (highest) down to 0.
func pdx(level int, addr uintptr) int {
	shift := uint(12 + 9*level)
	return int((addr >> shift) & 0x1ff)
}

// copyTop returns a new top-level node whose entries are a shallow
// copy of src's: child/page pointers are shared (the same subtrees),
// only the 512-entry array itself is duplicated. This is precisely
// what copying a shared PML4 into a private one means on real
// hardware -- the entries are physical addresses pointing at shared
// lower-level tables, so copying the array by value shares the
// subtrees for free.
func copyTop(src *node) *node {
	dst := &node{}
	*dst = *src
	return dst
}
