package tlmm

import (
	"github.com/biscuit-os/tlmm/pkg/errs"
	"github.com/biscuit-os/tlmm/pkg/mem"
)

// GrowShared simulates the host kernel installing a brand-new top-level
// mapping in the shared page map at the slot covering addr -- the event
// that, on real hardware, is followed by the fault handler calling
// SyncPud on every thread that faults there afterward.
//
// This is not part of the TLMM core (spec Sec. 1 places the generic
// page-fault handler and the rest of the shared map's growth out of
// scope as an external collaborator); it exists only so this module's
// own tests can exercise SyncPud without a real kernel underneath them.
// It enforces the not-Present -> Present invariant SyncPud relies on by
// refusing to grow an already-present slot.
func (p *Process) GrowShared(addr uintptr) errs.Err_t {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx := pdx(toplevel, addr)
	e := &p.shared.ent[idx]
	if e.present() {
		return errs.INVALID
	}
	e.flags = mem.PTE_P | mem.PTE_U | mem.PTE_W
	e.child = &node{}
	return errs.OK
}
