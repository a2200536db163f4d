package tlmm

import (
	"context"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/biscuit-os/tlmm/pkg/errs"
	"github.com/biscuit-os/tlmm/pkg/mem"
)

// TestExitUnmapsButLeavesPagesOwned is spec Sec. 8 scenario 6: a
// thread's Exit must drop its own shadow map (Translate falls through
// to the shared map, which has nothing mapped in the TLMM region) but
// must not free the underlying PD pages -- the process can still hand
// them to a new thread afterward.
func TestExitUnmapsButLeavesPagesOwned(t *testing.T) {
	p, base := newReservedProcess(t)
	pd, _ := p.Palloc()

	th := NewThread(p)
	if err := th.Pmap(base, []mem.PD{pd}, READ|WRITE, false); err != errs.OK {
		t.Fatalf("pmap: %v", err)
	}
	th.Exit()

	if _, ok := th.Translate(base); ok {
		t.Fatal("expected no translation after Exit")
	}

	// The PD itself is still live and mappable by a fresh thread.
	th2 := NewThread(p)
	if err := th2.Pmap(base, []mem.PD{pd}, READ, false); err != errs.OK {
		t.Fatalf("pmap after prior thread's exit: %v", err)
	}
	if _, ok := th2.Translate(base); !ok {
		t.Fatal("expected pd to still be mappable after the first thread exited")
	}
}

func TestExitIsIdempotent(t *testing.T) {
	p, base := newReservedProcess(t)
	pd, _ := p.Palloc()
	th := NewThread(p)
	if err := th.Pmap(base, []mem.PD{pd}, READ, false); err != errs.OK {
		t.Fatal(err)
	}
	th.Exit()
	th.Exit() // must not panic on a nil root
}

func TestExitBeforeAnyPmapIsANoOp(t *testing.T) {
	p, _ := newReservedProcess(t)
	th := NewThread(p)
	th.Exit()
}

// TestConcurrentThreadsDoNotCorruptEachOther runs several threads
// concurrently mapping distinct PDs at the same virtual address and
// exiting, exercising the process lock's exclusion the way spec Sec. 8
// scenario 2 implies a real multi-core test would.
func TestConcurrentThreadsDoNotCorruptEachOther(t *testing.T) {
	p, base := newReservedProcess(t)
	const nthreads = 16

	pds := make([]mem.PD, nthreads)
	for i := range pds {
		pds[i], _ = p.Palloc()
	}

	g, _ := errgroup.WithContext(context.Background())
	results := make([]bool, nthreads)
	for i := 0; i < nthreads; i++ {
		i := i
		g.Go(func() error {
			th := NewThread(p)
			if err := th.Pmap(base, []mem.PD{pds[i]}, READ|WRITE, false); err != errs.OK {
				return err
			}
			tr, ok := th.Translate(base)
			if !ok {
				t.Errorf("thread %d: no translation after its own pmap", i)
				return nil
			}
			pg, _ := p.pd.Page(pds[i])
			results[i] = &tr.Page[0] == &pg[0]
			th.Exit()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent pmap: %v", err)
	}
	for i, ok := range results {
		if !ok {
			t.Fatalf("thread %d observed the wrong page for its own mapping", i)
		}
	}
}

func TestProcessTeardownFreesAllPDs(t *testing.T) {
	p, base := newReservedProcess(t)
	var pds []mem.PD
	for i := 0; i < 8; i++ {
		pd, _ := p.Palloc()
		pds = append(pds, pd)
	}
	th := NewThread(p)
	if err := th.Pmap(base, pds, READ|WRITE, false); err != errs.OK {
		t.Fatal(err)
	}
	th.Exit()
	p.Teardown()
	if p.PDCount() != 0 {
		t.Fatalf("PDCount() = %d after teardown, want 0", p.PDCount())
	}
}
