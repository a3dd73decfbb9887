package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// progressReporter prints render progress.  On a terminal it redraws a single
// line; otherwise (a log file, CI) it prints whole lines at a slower pace.
type progressReporter struct {
	out     io.Writer
	tty     bool
	limiter *rate.Limiter
}

func newProgressReporter(out io.Writer, tty bool, every time.Duration) *progressReporter {
	return &progressReporter{
		out:     out,
		tty:     tty,
		limiter: rate.NewLimiter(rate.Every(every), 1),
	}
}

func newStderrProgressReporter() *progressReporter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return newProgressReporter(os.Stderr, true, 100*time.Millisecond)
	}
	return newProgressReporter(os.Stderr, false, 10*time.Second)
}

// Report matches camera.ProgressFunction.  The final row is always reported.
func (p *progressReporter) Report(done, total int) {
	if done != total && !p.limiter.Allow() {
		return
	}

	pct := 100 * done / total
	if p.tty {
		fmt.Fprintf(p.out, "\r%d/%d rows %d%%", done, total, pct)
		if done == total {
			fmt.Fprintf(p.out, "\n")
		}
		return
	}
	fmt.Fprintf(p.out, "%d/%d rows %d%%\n", done, total, pct)
}
