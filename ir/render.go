package ir

import (
	"fmt"
	"strings"
)

// ReportPreamble/ReportPostamble bound a rendered IR report the way CATF's
// attestation preamble/postamble bound a document — fixed markers a reader
// (or a downstream tool splitting a log into records) can anchor on.
const (
	ReportPreamble  = "----- OBI IR REPORT -----"
	ReportPostamble = "----- END OBI IR REPORT -----"
)

// Render produces a deterministic, human-readable rendering of a Stream:
// one line per node, in emission order, followed by the final accumulated
// cost. It is intended for audit logs and the CLI's `admit` verb — never
// for re-parsing; the IR itself (not its rendering) is the contract.
func Render(s *Stream, finalCost float64) []byte {
	var sb strings.Builder
	sb.WriteString(ReportPreamble)
	sb.WriteByte('\n')
	for i, n := range s.Nodes {
		fmt.Fprintf(&sb, "%04d  state=%-2d  kind=%-18s cost=%.4f  %q\n",
			i, n.SourceStateID, n.Kind, n.Cost, string(n.CanonicalContent))
	}
	fmt.Fprintf(&sb, "total-cost: %.4f\n", finalCost)
	sb.WriteString(ReportPostamble)
	return []byte(sb.String())
}
