// Command tlmmctl drives the TLMM core end to end from userspace,
// standing in for the ioctl facade spec Sec. 1 places out of scope: it
// is a caller of pkg/tlmm's public API, not a reimplementation of the
// character device.
//
// Modeled on the original's test/pmap.c and test/micro.c harnesses and,
// in command-line shape, on the teacher's own kernel/chentry.go (a
// small os.Args-driven tool that uses log.Fatal for usage errors).
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/biscuit-os/tlmm/pkg/diag"
	"github.com/biscuit-os/tlmm/pkg/mem"
	"github.com/biscuit-os/tlmm/pkg/tlmm"
)

func usage(me string) {
	fmt.Printf("%s <command>\n\ncommands:\n  demo    run the minimal-map end-to-end scenario\n  grow N  allocate N PDs and report pd table growth\n", me)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Args[0])
	}

	switch os.Args[1] {
	case "demo":
		runDemo()
	case "grow":
		if len(os.Args) != 3 {
			usage(os.Args[0])
		}
		runGrow(os.Args[2])
	default:
		usage(os.Args[0])
	}
}

// runDemo reproduces spec Sec. 8 scenario 1 ("Minimal map"): reserve,
// palloc a PD, map it writable, write a marker byte, then have a second
// thread map the same PD and observe the marker.
func runDemo() {
	proc := tlmm.NewProcess()

	base, err := proc.Reserve()
	if err != 0 {
		log.Fatalf("reserve: %v", err)
	}
	fmt.Printf("reserved tlmm region at 0x%x\n", base)

	pd, err := proc.Palloc()
	if err != 0 {
		log.Fatalf("palloc: %v", err)
	}
	fmt.Printf("allocated pd %d\n", pd)

	a := tlmm.NewThread(proc)
	if err := a.Pmap(base, []mem.PD{pd}, tlmm.READ|tlmm.WRITE, false); err != 0 {
		log.Fatalf("pmap (thread a): %v", err)
	}

	tr, ok := a.Translate(base)
	if !ok {
		log.Fatal("thread a: base did not translate after pmap")
	}
	tr.Page[0] = 0xAB
	fmt.Printf("thread a wrote 0x%x at base\n", tr.Page[0])

	b := tlmm.NewThread(proc)
	if err := b.Pmap(base, []mem.PD{pd}, tlmm.READ|tlmm.WRITE, false); err != 0 {
		log.Fatalf("pmap (thread b): %v", err)
	}
	trb, ok := b.Translate(base)
	if !ok {
		log.Fatal("thread b: base did not translate after pmap")
	}
	fmt.Printf("thread b observed 0x%x at base\n", trb.Page[0])

	a.Exit()
	b.Exit()
	proc.Teardown()
}

// runGrow allocates n PDs, printing an x/text-formatted growth line each
// time the PD count first passes a grow boundary and a final occupancy
// summary, exercising pkg/diag's stats formatting.
func runGrow(nArg string) {
	var n int
	if _, err := fmt.Sscanf(nArg, "%d", &n); err != nil || n < 1 {
		log.Fatalf("bad count %q", nArg)
	}

	proc := tlmm.NewProcess()
	lastReported := 0
	for i := 0; i < n; i++ {
		if _, err := proc.Palloc(); err != 0 {
			log.Fatalf("palloc: %v", err)
		}
		if c := proc.PDCount(); c != lastReported && isGrowBoundary(c) {
			fmt.Print(diag.ReportPDGrowth(c))
			lastReported = c
		}
	}

	fmt.Print(diag.ReportCounters(diag.Counters{PDPages: proc.PDCount()}))
	proc.Teardown()
}

func isGrowBoundary(n int) bool {
	for b := 1024; b < n; b *= 2 {
		if n == b+1 {
			return true
		}
	}
	return false
}
