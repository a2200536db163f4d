package mem

import (
	"testing"

	"github.com/biscuit-os/tlmm/pkg/errs"
)

func TestPallocAssignsDenseIncreasingPDs(t *testing.T) {
	var tbl PDTable
	for want := 0; want < 5; want++ {
		pd, err := tbl.Palloc()
		if err != errs.OK {
			t.Fatalf("palloc %d: %v", want, err)
		}
		if int(pd) != want {
			t.Fatalf("palloc %d: got pd %d", want, pd)
		}
	}
	if tbl.N() != 5 {
		t.Fatalf("N() = %d, want 5", tbl.N())
	}
}

func TestPallocPagesAreZeroFilledAndDistinct(t *testing.T) {
	var tbl PDTable
	pdA, err := tbl.Palloc()
	if err != errs.OK {
		t.Fatal(err)
	}
	pdB, err := tbl.Palloc()
	if err != errs.OK {
		t.Fatal(err)
	}
	pgA, _ := tbl.Page(pdA)
	pgB, _ := tbl.Page(pdB)
	for i, b := range pgA {
		if b != 0 {
			t.Fatalf("pgA[%d] = %d, want zero-filled page", i, b)
		}
	}
	pgA[0] = 7
	if pgB[0] == 7 {
		t.Fatal("pages alias each other")
	}
}

func TestPageRejectsOutOfRangeOrNull(t *testing.T) {
	var tbl PDTable
	if _, ok := tbl.Page(PDNull); ok {
		t.Fatal("PDNull must not resolve to a page")
	}
	if _, ok := tbl.Page(0); ok {
		t.Fatal("empty table must not resolve PD 0")
	}
	pd, _ := tbl.Palloc()
	if _, ok := tbl.Page(pd + 1); ok {
		t.Fatal("one past the last live PD must not resolve")
	}
}

// TestGrowPreservesPageIdentity is spec Sec. 8's "Grow under load":
// allocate past the first resize threshold, writing a distinguishing
// byte through each PD's page before growth, and verify every page
// still reads back its marker afterward -- i.e. the incremental copy
// from current into next never drops a live page.
func TestGrowPreservesPageIdentity(t *testing.T) {
	var tbl PDTable
	const total = 1025 // crosses the 1024 -> 2048 grow boundary

	pds := make([]PD, total)
	for i := 0; i < total; i++ {
		pd, err := tbl.Palloc()
		if err != errs.OK {
			t.Fatalf("palloc %d: %v", i, err)
		}
		pds[i] = pd
		pg, ok := tbl.Page(pd)
		if !ok {
			t.Fatalf("palloc %d: no page for new pd", i)
		}
		pg[0] = byte(int(pd) % 251)
	}

	for i, pd := range pds {
		pg, ok := tbl.Page(pd)
		if !ok {
			t.Fatalf("pd %d: page vanished after grow", pd)
		}
		if want := byte(int(pd) % 251); pg[0] != want {
			t.Fatalf("pd %d (index %d): page content lost across grow: got %d want %d",
				pd, i, pg[0], want)
		}
	}
}

// TestCurrentSupersetsNextAtGrow is the open question in spec Sec. 9:
// at the moment of a grow step, current's live prefix is exactly
// mirrored into next, modulo the pending incremental-copy tail tracked
// by cpIndex.
func TestCurrentSupersetsNextAtGrow(t *testing.T) {
	var tbl PDTable
	for i := 0; i < initTableSize; i++ {
		if _, err := tbl.Palloc(); err != errs.OK {
			t.Fatalf("palloc %d: %v", i, err)
		}
	}
	// The grow triggered by the next palloc (n == size) happens inside
	// the call below; immediately after, every index beyond cpIndex
	// must already agree between current and the newly promoted next.
	if _, err := tbl.Palloc(); err != errs.OK {
		t.Fatalf("triggering palloc: %v", err)
	}
	for i := tbl.CopyPending() + 1; i < initTableSize; i++ {
		got := tbl.Next(PD(i))
		want, _ := tbl.Page(PD(i))
		if len(got) == 0 || &got[0] != &want[0] {
			t.Fatalf("index %d: next not yet mirrored from current past cpIndex=%d",
				i, tbl.CopyPending())
		}
	}
}

func TestTeardownFreesPages(t *testing.T) {
	var tbl PDTable
	for i := 0; i < 16; i++ {
		if _, err := tbl.Palloc(); err != errs.OK {
			t.Fatal(err)
		}
	}
	tbl.Teardown()
	if tbl.N() != 0 {
		t.Fatalf("N() = %d after teardown, want 0", tbl.N())
	}
}
