package tlmm

import "github.com/biscuit-os/tlmm/pkg/errs"
import "github.com/biscuit-os/tlmm/pkg/mem"

// maxStackPDs names the same threshold the original used to decide
// between a stack array and a heap allocation for the caller-supplied
// PD batch (MAXSTACKPDS in tlmm_pmap). Go's escape analysis, not this
// constant, decides where the caller's pds slice actually lives; the
// constant is kept only because this module's tests deliberately
// exercise batches on both sides of the boundary the original drew.
const maxStackPDs = 32

// Pmap installs (or clears) m consecutive leaf entries in the calling
// thread's shadow page map, per spec Sec. 4.3.
//
// addr must be page-aligned and the full range
// [addr, addr+(len(pds)-1)*PAGE_SZ] must lie inside the TLMM region.
// decmap selects which end of pds lands at the lowest address: false
// walks pds in order starting at addr; true walks it in reverse, so
// pds[len(pds)-1] lands at addr and pds[0] lands at the highest address
// touched.
func (t *Thread) Pmap(addr uintptr, pds []mem.PD, prot Prot, decmap bool) errs.Err_t {
	m := len(pds)
	if m < 1 {
		return errs.INVALID
	}
	if addr&mem.PGOFFSET != 0 {
		return errs.INVALID
	}

	last := addr + uintptr(m-1)*uintptr(mem.PGSIZE)
	if last < addr {
		return errs.INVALID // overflow
	}

	t.proc.mu.Lock()
	defer t.proc.mu.Unlock()

	if !t.proc.inRegion(addr) || !t.proc.inRegion(last) {
		return errs.INVALID
	}

	root := t.ensureRoot()

	ptflags := prot.flags()

	pos, step := 0, 1
	if decmap {
		pos, step = m-1, -1
	}

	if err := walk(root, toplevel, addr, last, pds, &pos, step, ptflags, &t.proc.pd); err != errs.OK {
		return err
	}

	t.activate()
	return errs.OK
}

// walk performs the depth-first traversal described in spec Sec. 4.3,
// mirroring page_map_traverse: for levels toplevel..1 it recurses into
// (allocating, if absent) the child node covering [first, last]; at
// level 0 it consumes one PD per leaf and writes (or clears) the entry.
//
// first/last are always expressed as full virtual addresses; the
// sentinels 0 and ^uintptr(0) stand in for "start of this subtree" and
// "end of this subtree" when idx isn't the outermost index at this
// level, exactly like page_map_traverse's "0" / "~0UL" substitutions.
func walk(n *node, level int, first, last uintptr, pds []mem.PD, pos *int, step int,
	ptflags uintptr, pd *mem.PDTable) errs.Err_t {

	firstIdx := pdx(level, first)
	lastIdx := pdx(level, last)

	for idx := firstIdx; idx <= lastIdx; idx++ {
		e := &n.ent[idx]

		if level == 0 {
			p := pds[*pos]
			*pos += step
			if p == mem.PDNull {
				*e = entry{}
				continue
			}
			pg, ok := pd.Page(p)
			if !ok {
				return errs.INVALID
			}
			*e = entry{flags: ptflags, page: pg}
			continue
		}

		if !e.present() {
			e.flags = mem.PTE_P | mem.PTE_U | mem.PTE_W
			e.child = &node{}
		}

		nfirst, nlast := uintptr(0), ^uintptr(0)
		if idx == firstIdx {
			nfirst = first
		}
		if idx == lastIdx {
			nlast = last
		}

		if err := walk(e.child, level-1, nfirst, nlast, pds, pos, step, ptflags, pd); err != errs.OK {
			return err
		}
	}
	return errs.OK
}

// activate marks the shadow map as the thread's current translation
// root. On real hardware this both installs the (possibly
// newly-allocated) root into cr3 and flushes the TLB; there is neither
// here, so activate is the seam a host integration would hook a real
// "load_cr3 + invalidate" into. See spec Sec. 4.3's "whole-root reload
// is preferred over per-page invalidation for simplicity".
func (t *Thread) activate() {
	t.active = true
}
