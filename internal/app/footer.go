package app

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperifyio/relnotes/internal/extract"
)

// runFooter renders a minimal, deterministic line that records what the run
// did, for operators and log scrapers.
func runFooter(runID string, res extract.Result, stats runStats, dryRun bool) string {
	var b strings.Builder
	b.WriteString("Run: ")
	b.WriteString("id=")
	b.WriteString(strings.TrimSpace(runID))
	b.WriteString("; version=")
	b.WriteString(strings.TrimSpace(res.Version))
	b.WriteString("; records=")
	b.WriteString(strconv.Itoa(len(res.Records)))
	b.WriteString("; unmatched=")
	b.WriteString(strconv.Itoa(len(res.Unmatched)))
	b.WriteString("; uploaded=")
	b.WriteString(strconv.Itoa(stats.uploaded))
	b.WriteString("; failed=")
	b.WriteString(strconv.Itoa(stats.failed))
	b.WriteString("; gated=")
	b.WriteString(fmt.Sprintf("%t", stats.gated))
	b.WriteString("; dry_run=")
	b.WriteString(fmt.Sprintf("%t", dryRun))
	b.WriteString("\n")
	return b.String()
}
