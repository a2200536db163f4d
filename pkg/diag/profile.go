// Package diag provides ambient diagnostics for a TLMM process: a
// pprof-format occupancy profile and locale-aware stats formatting.
// Grounded on biscuit's own Physmem_t.Pgcount (biscuit/src/mem/mem.go),
// which walks the free lists and per-CPU pmap counts purely for
// operator visibility; this package is the same idea expressed with
// the teacher's own direct dependency on github.com/google/pprof
// instead of a bespoke counter struct.
package diag

import (
	"io"

	"github.com/google/pprof/profile"
)

// Counters is a snapshot of one process's TLMM occupancy, the
// information a caller would gather from Process.PDCount and a walk of
// each thread's shadow map to report via Profile.
type Counters struct {
	// PDPages is the number of physical pages currently owned by the
	// PD table (mem.PDTable.N()).
	PDPages int
	// ThreadNodes maps a thread label (e.g. "thread-3") to the number
	// of intermediate shadow-map nodes it has allocated.
	ThreadNodes map[string]int
}

// Profile renders c as a pprof profile.Profile with one sample type,
// "pages", one sample for the PD pool and one sample per thread. The
// result can be written with (*profile.Profile).Write and opened with
// `go tool pprof` like any other memory profile.
func Profile(c Counters) *profile.Profile {
	pagesType := &profile.ValueType{Type: "pages", Unit: "count"}

	p := &profile.Profile{
		SampleType: []*profile.ValueType{pagesType},
		PeriodType: pagesType,
		Period:     1,
	}

	var nextID uint64
	newFunc := func(name string) *profile.Function {
		nextID++
		fn := &profile.Function{ID: nextID, Name: name, SystemName: name}
		p.Function = append(p.Function, fn)
		return fn
	}
	newLoc := func(fn *profile.Function) *profile.Location {
		nextID++
		loc := &profile.Location{
			ID:   nextID,
			Line: []profile.Line{{Function: fn}},
		}
		p.Location = append(p.Location, loc)
		return loc
	}

	pdLoc := newLoc(newFunc("pd_table"))
	p.Sample = append(p.Sample, &profile.Sample{
		Location: []*profile.Location{pdLoc},
		Value:    []int64{int64(c.PDPages)},
	})

	for label, n := range c.ThreadNodes {
		loc := newLoc(newFunc("shadow_map:" + label))
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{int64(n)},
		})
	}

	return p
}

// Write serializes c as a pprof profile to w.
func Write(w io.Writer, c Counters) error {
	return Profile(c).Write(w)
}
