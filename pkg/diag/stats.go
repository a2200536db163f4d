package diag

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// reportPrinter is a fixed English printer: this module has no locale
// negotiation of its own, it just wants x/text's grouped-thousands
// rendering for the same counters the teacher prints with a bare
// fmt.Printf("Reserved %v pages (%vMB)\n", ...) in mem.Phys_init.
var reportPrinter = message.NewPrinter(language.English)

// ReportPDGrowth renders a one-line summary of a PD-table grow step,
// the Go-idiom-with-a-library equivalent of Phys_init's
// fmt.Printf("Reserved %v pages (%vMB)\n", respgs, respgs>>8).
func ReportPDGrowth(size int) string {
	bytes := int64(size) * 4096
	return reportPrinter.Sprintf("tlmm: pd table grew to %v pages (%v bytes)\n",
		number.Decimal(size), number.Decimal(bytes))
}

// ReportCounters renders a Counters snapshot as a human-readable
// summary line, grouped the same way.
func ReportCounters(c Counters) string {
	total := 0
	for _, n := range c.ThreadNodes {
		total += n
	}
	return reportPrinter.Sprintf("tlmm: %v pd pages, %v threads with shadow maps (%v nodes total)\n",
		number.Decimal(c.PDPages), len(c.ThreadNodes), number.Decimal(total))
}
