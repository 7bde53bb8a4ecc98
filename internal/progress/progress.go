// Package progress renders a terminal progress bar for large FEL transfers,
// driven by the same (total, completed, chunk) callback the transport layer
// already invokes per chunk — no separate event loop is needed.
package progress

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/progress"

	"github.com/allwinner-tools/go-fel/internal/usbtransport"
)

// Bar renders a single-line progress bar to stderr each time it is fed a
// chunk. It renders nothing for a transfer that fits in one chunk — the
// original tool's own progress_bar() skips rendering when the chunk length
// equals the total, and this keeps the same guard.
type Bar struct {
	model progress.Model
}

// New returns a Bar styled the way the rest of the CLI renders terminal
// output (bubbles' default gradient, 40 columns wide).
func New() *Bar {
	m := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	return &Bar{model: m}
}

// Func adapts Bar into a usbtransport.ProgressFunc.
func (b *Bar) Func() usbtransport.ProgressFunc {
	return func(total, completed, chunkLen int) {
		if chunkLen >= total {
			return
		}
		ratio := 0.0
		if total > 0 {
			ratio = float64(completed) / float64(total)
		}
		fmt.Fprintf(os.Stderr, "\r%s", b.model.ViewAs(ratio))
		if completed >= total {
			fmt.Fprintln(os.Stderr)
		}
	}
}
