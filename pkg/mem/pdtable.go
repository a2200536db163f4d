package mem

import "github.com/biscuit-os/tlmm/pkg/errs"

// PD is a page descriptor: a process-global, dense, monotonically
// assigned integer handle to one owned physical page.
type PD int

// PDNull is the distinguished "no mapping" PD, accepted anywhere a PD
// is expected.
const PDNull PD = -1

// initTableSize is the PD table's initial capacity, named after the
// original's INIT_TLMM_TABLE_SIZE.
const initTableSize = 1024

// PDTable is the process-wide page-descriptor table: a growable
// indexed array of owned physical pages, grounded on biscuit's
// tlmm_table (original_source/arch/x86/kernel/tlmm.c) and restated in
// Go idiom after mem.Physmem_t's free-list bookkeeping.
//
// PDTable carries no lock of its own: like the original tlmm_table, it
// is only ever mutated under the owning process's single address-space
// write lock (pkg/tlmm.Process.mu covers vmas, pd and shared together,
// mirroring the teacher's own Vm_t comment: "lock for vmregion,
// pmpages, pmap, and p_pmap").
//
// Every slot 0..n in current owns exactly one physical page; next[i]
// == current[i] for every i > cpIndex.
type PDTable struct {
	n       int
	size    int
	current []Page
	next    []Page
	// cpIndex is the highest index in current not yet copied into next
	// (indices 0..cpIndex are pending; the copy runs downward), or -1
	// meaning "nothing pending".
	cpIndex int
}

func (t *PDTable) init() {
	if t.current != nil {
		return
	}
	t.current = make([]Page, initTableSize)
	t.next = make([]Page, initTableSize*2)
	t.size = initTableSize
	t.n = 0
	t.cpIndex = -1
}

// grow runs one grow step: it allocates a fresh backing array of
// capacity size*4, designates the old next as the new current, and
// schedules the old current's live prefix for incremental copy into
// the new next. Mirrors expand_tlmm_table.
func (t *PDTable) grow() errs.Err_t {
	newSize := t.size * 4
	if newSize <= 0 || newSize <= t.size {
		return errs.OUT_OF_MEMORY
	}
	fresh := make([]Page, newSize)
	t.cpIndex = t.size - 1
	t.current = t.next
	t.next = fresh
	t.size = t.size * 2
	return errs.OK
}

// Palloc allocates one new PD backed by one zero-filled physical page.
// Callers must hold the process address-space write lock.
func (t *PDTable) Palloc() (PD, errs.Err_t) {
	t.init()

	if t.n == t.size {
		if err := t.grow(); err != errs.OK {
			return PDNull, err
		}
	}

	pg, err := NewPage()
	if err != nil {
		return PDNull, errs.OUT_OF_MEMORY
	}

	n := t.n
	t.current[n] = pg
	t.next[n] = pg

	// Incremental copy: amortize the resize across subsequent Palloc
	// calls so that by the time next becomes live (the following grow
	// step promotes it to current) it is fully populated.
	if t.cpIndex >= 0 {
		t.next[t.cpIndex] = t.current[t.cpIndex]
		t.cpIndex--
	}

	t.n = n + 1
	return PD(n), errs.OK
}

// N reports the number of live PDs (the next PD palloc would return).
func (t *PDTable) N() int {
	return t.n
}

// CopyPending reports the table's current cpIndex, exposed only so
// tests can assert the incremental-copy invariant from spec Sec. 8
// ("current is always a superset of the live prefix of next at the
// moment of a grow").
func (t *PDTable) CopyPending() int {
	return t.cpIndex
}

// Next returns the page currently sitting in the next array for pd,
// used only by tests validating the incremental copy.
func (t *PDTable) Next(pd PD) Page {
	if pd < 0 || int(pd) >= len(t.next) {
		return nil
	}
	return t.next[pd]
}

// Page returns the physical page owned by pd, or ok=false if pd is out
// of range or its slot is unexpectedly empty (an invariant violation
// per spec Sec. 7 -- the table claims pd is live but has no page for
// it).
func (t *PDTable) Page(pd PD) (Page, bool) {
	if pd < 0 || int(pd) >= t.n {
		return nil, false
	}
	pg := t.current[pd]
	if pg == nil {
		return nil, false
	}
	return pg, true
}

// Teardown frees every physical page owned by the table. Called once,
// at process exit, after every thread has detached its shadow map
// (spec Sec. 4.5, exit_tlmm_mmap).
func (t *PDTable) Teardown() {
	for i := 0; i < t.n; i++ {
		if t.current[i] != nil {
			_ = t.current[i].Free()
		}
	}
	t.current = nil
	t.next = nil
	t.n = 0
	t.size = 0
	t.cpIndex = -1
}
