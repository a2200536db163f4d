package tlmm

import "github.com/biscuit-os/tlmm/pkg/mem"

// Prot is the protection bitmask passed to Pmap, matching the
// userspace-visible semantic constants in spec Sec. 6.
type Prot uint

const (
	READ  Prot = 0x1
	WRITE Prot = 0x2
	EXEC  Prot = 0x4
)

// flags translates prot into page-map entry flags: Present|User|NoExecute
// by default, Write set if WRITE is requested, NoExecute cleared if EXEC
// is requested. A missing READ still produces a present, no-write,
// no-execute entry -- spec Sec. 4.3's "Read-only means the absence of
// Write" -- there is no separate read bit to clear.
func (p Prot) flags() uintptr {
	f := mem.PTE_P | mem.PTE_U | mem.PTE_NX
	if p&WRITE != 0 {
		f |= mem.PTE_W
	}
	if p&EXEC != 0 {
		f &^= mem.PTE_NX
	}
	return f
}
