package tlmm

// Exit tears down the thread's shadow map, per spec Sec. 4.5
// (exit_tlmm_task): if the thread never called Pmap there is nothing to
// do; otherwise every node reached from the top-level entry covering
// the TLMM region is unlinked so it can be collected, and the thread's
// root reference is dropped so that a subsequent Translate call falls
// back to the shared map, exactly as "restore the process's shared map
// as the current translation root" describes.
//
// Nodes outside the TLMM region's top-level slot are never touched --
// they are shared with the process map and other threads.
func (t *Thread) Exit() {
	t.proc.mu.Lock()
	defer t.proc.mu.Unlock()

	if t.root == nil {
		return
	}

	if t.proc.haveRegion {
		idx := pdx(toplevel, t.proc.regionBase)
		unlink(&t.root.ent[idx], toplevel)
	}
	t.root = nil
	t.active = false
}

// unlink recursively drops this subtree's references. Levels 1..3 hold
// intermediate nodes private to this thread's TLMM subtree and are
// simply discarded (Go's collector reclaims them; there is no separate
// free_page the way the original needs, since these were never real
// physical pages). Level-0 leaves reference physical pages owned by the
// process's PD table -- those are never freed here, only unreferenced.
func unlink(e *entry, level int) {
	if !e.present() {
		return
	}
	if level > 0 && e.child != nil {
		for i := range e.child.ent {
			unlink(&e.child.ent[i], level-1)
		}
	}
	e.child = nil
	e.page = nil
	e.flags = 0
}
