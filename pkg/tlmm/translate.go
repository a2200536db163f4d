package tlmm

import "github.com/biscuit-os/tlmm/pkg/mem"

// Translation is the result of walking a thread's current translation
// root for one virtual address: the physical page it resolves to and
// the permission flags governing it.
type Translation struct {
	Page  mem.Page
	Flags uintptr
}

// Writable reports whether the translation permits stores.
func (tr Translation) Writable() bool { return tr.Flags&mem.PTE_W != 0 }

// Executable reports whether the translation permits instruction fetch.
func (tr Translation) Executable() bool { return tr.Flags&mem.PTE_NX == 0 }

// Translate walks the thread's current translation root for addr and
// reports the resulting physical page and permissions, or ok=false if
// addr is unmapped. This is the userspace stand-in for a real hardware
// table walk: it is how this module's tests observe what pmap,
// sync_pud, and Exit actually did, matching the way the teacher's own
// Userdmap8_inner walks a pmap to service kernel-side user memory
// access in vm/as.go.
func (t *Thread) Translate(addr uintptr) (Translation, bool) {
	t.proc.mu.Lock()
	defer t.proc.mu.Unlock()

	root := t.root
	if root == nil {
		root = &t.proc.shared
	}

	n := root
	for level := toplevel; level > 0; level-- {
		e := n.ent[pdx(level, addr)]
		if !e.present() {
			return Translation{}, false
		}
		n = e.child
	}
	e := n.ent[pdx(0, addr)]
	if !e.present() {
		return Translation{}, false
	}
	return Translation{Page: e.page, Flags: e.flags}, true
}
