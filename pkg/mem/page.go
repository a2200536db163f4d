// Package mem implements the physical-page pool that backs TLMM page
// descriptors, grounded on biscuit's mem.Physmem_t (biscuit/src/mem/mem.go)
// and mem.Pmap_t (biscuit/src/mem/dmap.go).
//
// Unlike the teacher, which allocates real physical RAM via the
// freestanding Go runtime's Get_phys, this package obtains page-aligned
// anonymous memory from the host OS with golang.org/x/sys/unix.Mmap --
// the closest a hosted process can get to "owning" a distinct physical
// page, and the only way to make palloc's zero-fill guarantee (spec
// Sec. 3) genuinely true rather than merely simulated.
package mem

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// PGSHIFT is the base-2 exponent for the page size.
const PGSHIFT uint = 12

// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

// PGOFFSET masks offsets within a page.
const PGOFFSET uintptr = 0xfff

// PGMASK masks the page number of an address.
const PGMASK uintptr = ^PGOFFSET

// Entry flag bits for a leaf or intermediate page-map entry. The
// encoding mirrors biscuit's PTE_P/PTE_W/PTE_U but the set is the one
// named by the spec's data model: Present, User, Write, NoExecute,
// Accessed, Dirty.
const (
	PTE_P  uintptr = 1 << 0 // present
	PTE_W  uintptr = 1 << 1 // writable
	PTE_U  uintptr = 1 << 2 // user-accessible
	PTE_A  uintptr = 1 << 5 // accessed
	PTE_D  uintptr = 1 << 6 // dirty
	PTE_NX uintptr = 1 << 63
)

// PTE_ADDR extracts the physical page address bits of an entry.
const PTE_ADDR uintptr = PGMASK

// Page is one zero-filled, page-aligned, OS-backed physical page. It is
// the payload a PD owns.
type Page []byte

// NewPage allocates one zero-filled page-aligned anonymous mapping.
// Anonymous mmap pages are zero-filled by the kernel on first touch,
// which gives the same guarantee as the teacher's Refpg_new without an
// explicit memset.
func NewPage() (Page, error) {
	b, err := unix.Mmap(-1, 0, PGSIZE, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return Page(b), nil
}

// Free releases the page back to the OS.
func (p Page) Free() error {
	return unix.Munmap([]byte(p))
}

// Addr returns an opaque, stable identity for the page suitable for use
// as the "physical address" stored in a page-map entry. It is only ever
// compared for equality or masked with PTE_ADDR/PTE flags by this
// module -- never dereferenced as a real pointer.
func (p Page) Addr() uintptr {
	if len(p) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&p[0]))
}
