package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/mvp-joe/phpintel/internal/batch"
	"github.com/schollz/progressbar/v3"
)

// CLIProgressReporter renders index progress as a progress bar.
type CLIProgressReporter struct {
	quiet bool
	out   io.Writer
	bar   *progressbar.ProgressBar
}

var _ batch.Progress = (*CLIProgressReporter)(nil)

// NewCLIProgressReporter creates a reporter that draws on out.
func NewCLIProgressReporter(out io.Writer, quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet, out: out}
}

func (c *CLIProgressReporter) Open(total int) {
	if c.quiet {
		return
	}
	// Finish any existing progress bar
	if c.bar != nil {
		c.bar.Finish()
	}
	c.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.out),
		progressbar.OptionSetDescription("Indexing classes"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("classes/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.out)
		}),
	)
}

func (c *CLIProgressReporter) Increment() {
	if c.quiet || c.bar == nil {
		return
	}
	c.bar.Add(1)
}

func (c *CLIProgressReporter) Close() {
	if c.quiet || c.bar == nil {
		return
	}
	c.bar.Finish()
	c.bar = nil
}

// printStats reports the outcome of an index run.
func printStats(out io.Writer, stats *batch.Stats) {
	fmt.Fprintf(out, "✓ Indexed %s classes in %.1fs (%d worker generations)\n",
		formatNumber(stats.Entries-len(stats.Lost)),
		stats.Duration.Seconds(),
		stats.Generations)
	for _, class := range stats.Lost {
		fmt.Fprintf(out, "  skipped %s: worker crashed\n", class)
	}
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
