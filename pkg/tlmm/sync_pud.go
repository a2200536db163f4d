package tlmm

import (
	"github.com/biscuit-os/tlmm/pkg/errs"
	"github.com/biscuit-os/tlmm/pkg/mem"
)

// TopEntry is an opaque top-level page-map entry, as read from the
// shared map by the (out-of-scope, per spec Sec. 1) host fault path and
// handed to SyncPud. Its only legitimate uses are Present and as the
// argument to SyncPud -- it is never meant to be decomposed by a
// caller.
type TopEntry struct {
	flags uintptr
	child *node
}

// Present reports whether this top-level entry is currently mapped.
func (e TopEntry) Present() bool { return e.flags&mem.PTE_P != 0 }

// SharedTopEntry returns the process's current shared top-level entry
// for addr, for the host fault handler to pass to SyncPud. Calling it
// is the in-module stand-in for the real fault path's own PUD lookup.
func (p *Process) SharedTopEntry(addr uintptr) TopEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	e := p.shared.ent[pdx(toplevel, addr)]
	return TopEntry{flags: e.flags, child: e.child}
}

// SyncPud lazily mirrors a newly-present shared top-level entry into
// this thread's shadow map, per spec Sec. 4.4. It must be called by the
// host's page-fault path whenever it services a fault at address on a
// thread that already has a shadow map; for addresses inside the TLMM
// region it does nothing, since the per-thread pmap is authoritative
// there.
//
// The copy-only-if-absent rule relies on the invariant that shared
// top-level entries only ever transition not-Present -> Present, never
// Present -> Present': see GrowShared, which enforces it on the write
// side.
func (t *Thread) SyncPud(addr uintptr, upper TopEntry) errs.Err_t {
	t.proc.mu.Lock()
	defer t.proc.mu.Unlock()

	if t.proc.inRegion(addr) {
		return errs.OK
	}
	if t.root == nil {
		return errs.OK
	}

	e := &t.root.ent[pdx(toplevel, addr)]
	if !e.present() {
		e.flags = upper.flags
		e.child = upper.child
	}
	return errs.OK
}
