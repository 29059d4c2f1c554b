// Package report collects rule outcomes and renders the end-of-run summary.
package report

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/codemod/pkg/executor"
	"gitlab.com/tozd/go/errors"
)

// 📊 Summary records outcomes as the pipeline reports them
type Summary struct {
	mu       sync.Mutex
	outcomes []executor.Outcome
	started  time.Time
}

// 🏭 NewSummary creates an empty summary
func NewSummary() *Summary {
	return &Summary{started: time.Now()}
}

// Observe records out.
func (s *Summary) Observe(ctx context.Context, out executor.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.outcomes = append(s.outcomes, out)
	zerolog.Ctx(ctx).Debug().Str("rule", out.Rule).Bool("failed", out.Failed()).Msg("outcome recorded")
}

// Outcomes returns the recorded outcomes in execution order.
func (s *Summary) Outcomes() []executor.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]executor.Outcome(nil), s.outcomes...)
}

// Failures counts failed outcomes.
func (s *Summary) Failures() int {
	n := 0
	for _, out := range s.Outcomes() {
		if out.Failed() {
			n++
		}
	}
	return n
}

// 📝 Render writes the summary table to w
func (s *Summary) Render(w io.Writer) error {
	outcomes := s.Outcomes()

	data := pterm.TableData{{"Rule", "Result", "Duration", "Diagnostic"}}
	for _, out := range outcomes {
		result := pterm.Green("ok")
		diagnostic := ""
		if out.Failed() {
			result = pterm.Red("failed")
			diagnostic = out.Err.Error()
		}
		data = append(data, []string{out.Rule, result, out.Duration.Round(time.Millisecond).String(), diagnostic})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Errorf("rendering summary table: %w", err)
	}

	failures := s.Failures()
	footer := fmt.Sprintf("%d rules, %d failed, %s total", len(outcomes), failures, time.Since(s.started).Round(time.Millisecond))
	if failures > 0 {
		footer = pterm.Red(footer)
	} else {
		footer = pterm.Green(footer)
	}

	if _, err := fmt.Fprintf(w, "\n%s\n%s\n", table, footer); err != nil {
		return errors.Errorf("writing summary: %w", err)
	}
	return nil
}
