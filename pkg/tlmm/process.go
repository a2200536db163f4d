// Package tlmm implements the per-thread page-map subsystem: region
// reservation, the pmap engine, top-level synchronization and teardown,
// grounded on biscuit/src/vm/as.go (the Vm_t address space) and
// biscuit/src/mem/{mem,dmap}.go (the physical page pool and page-table
// layout), restating original_source/arch/x86/kernel/tlmm.c's
// algorithms in idiomatic Go.
package tlmm

import (
	"sync"

	"github.com/biscuit-os/tlmm/pkg/errs"
	"github.com/biscuit-os/tlmm/pkg/mem"
	"github.com/biscuit-os/tlmm/pkg/vma"
)

// RegionSize is the fixed size of the TLMM region: 2^39 bytes, exactly
// the span of one top-level (PML4-equivalent) page-map entry.
const RegionSize = uintptr(1) << 39

// userMax is the top of the canonical x86-64 user address range this
// module synthesizes addresses within.
const userMax = uintptr(1) << 47

// lowWatermark is the floor reserve()'s downward probe will not cross,
// named after the original's TASK_UNMAPPED_BASE.
const lowWatermark = uintptr(1) << 22

// Process is one process's TLMM state: the VMA set reserve() probes,
// the PD table palloc feeds, and the shared top-level page map every
// thread's shadow map is seeded from.
//
// mu is the process address-space write lock: the single lock covering
// vmas, region reservation, pd and shared together, mirroring the
// teacher's own comment on Vm_t ("lock for vmregion, pmpages, pmap, and
// p_pmap").
type Process struct {
	mu sync.Mutex

	vmas       vma.Set
	haveRegion bool
	regionBase uintptr

	pd mem.PDTable

	// shared is the process-wide top-level page map. Real top-level
	// entries only ever transition not-Present -> Present (spec Sec.
	// 4.4's invariant); this module enforces that in GrowShared.
	shared node
}

// NewProcess returns a fresh, otherwise-empty process.
func NewProcess() *Process {
	return &Process{}
}

// Reserve selects, on first call, the base virtual address of the
// TLMM region and returns it; subsequent calls return the same base.
// Grounded on get_unmapped_reserve: probe downward from the top of user
// address space in RegionSize steps, skipping any candidate that
// overlaps a live VMA, failing once the probe crosses the low
// watermark.
func (p *Process) Reserve() (uintptr, errs.Err_t) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.haveRegion {
		return p.regionBase, errs.OK
	}

	addr := alignDown(userMax-RegionSize, RegionSize)
	for addr > lowWatermark {
		if !p.vmas.Overlaps(addr, addr+RegionSize) {
			p.regionBase = addr
			p.haveRegion = true
			return addr, errs.OK
		}
		addr -= RegionSize
	}
	return 0, errs.OUT_OF_MEMORY
}

// RegisterVMA records an existing mapping for reserve's probe to avoid.
// It stands in for the rest of the kernel's mmap bookkeeping, which
// spec Sec. 1 places out of scope; tests use it to exercise reserve's
// VMA-skipping behavior deterministically.
func (p *Process) RegisterVMA(start, end uintptr) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vmas.Insert(start, end)
}

// Palloc allocates one new PD under the address-space write lock.
func (p *Process) Palloc() (mem.PD, errs.Err_t) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pd.Palloc()
}

// PDCount reports the number of live PDs.
func (p *Process) PDCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pd.N()
}

func (p *Process) inRegion(addr uintptr) bool {
	if !p.haveRegion {
		return false
	}
	return addr >= p.regionBase && addr < p.regionBase+RegionSize
}

// Teardown frees every physical page owned by the PD table. Callers
// must ensure every thread has already called Thread.Exit.
func (p *Process) Teardown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pd.Teardown()
}

func alignDown(v, n uintptr) uintptr {
	return v - v%n
}
