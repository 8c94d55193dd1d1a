// Package display formats ceph-sentinel command output as styled text
// tables or indented JSON, selected by the --output flag.
package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/concave-dev/ceph-sentinel/cmd/ceph-sentinel/config"
	"github.com/concave-dev/ceph-sentinel/internal/decision"
	"github.com/concave-dev/ceph-sentinel/internal/logging"
	"github.com/concave-dev/ceph-sentinel/internal/sampler"
	"github.com/concave-dev/ceph-sentinel/internal/sentinel"
	"github.com/concave-dev/ceph-sentinel/internal/state"
	"github.com/dustin/go-humanize"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder())

	okColor       = lipgloss.Color("#60F281")
	infoColor     = lipgloss.Color("#5FAFFF")
	warnColor     = lipgloss.Color("#FFD75F")
	criticalColor = lipgloss.Color("#FF5F5F")
)

func isJSON() bool {
	return config.Global.Output == "json"
}

func writeJSON(w io.Writer, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		logging.Error("Failed to encode JSON: %v", err)
		fmt.Fprintln(w, "Error encoding JSON output")
	}
}

// banner renders text in a bordered box tinted with color.
func banner(text string, color lipgloss.Color) string {
	return bannerStyle.BorderForeground(color).Foreground(color).Render(text)
}

func outcomeColor(status sentinel.OutcomeStatus) lipgloss.Color {
	switch status {
	case sentinel.OutcomeHealthy:
		return okColor
	case sentinel.OutcomeIdleConfirmed:
		return infoColor
	case sentinel.OutcomeRebootRequired, sentinel.OutcomeIdleUnresolved:
		return warnColor
	default:
		return criticalColor
	}
}

func decisionColor(d decision.Decision) lipgloss.Color {
	switch d {
	case decision.Healthy:
		return okColor
	case decision.IdleConfirmed, decision.IdleInconclusive:
		return infoColor
	case decision.RebootRequired:
		return warnColor
	default:
		return criticalColor
	}
}

// DisplayOutcome prints the result of one sentinel run.
func DisplayOutcome(w io.Writer, out sentinel.Outcome) {
	if isJSON() {
		writeJSON(w, out)
		return
	}

	title := strings.ToUpper(strings.ReplaceAll(string(out.Status), "_", " "))
	fmt.Fprintln(w, banner(title, outcomeColor(out.Status)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run ID:\t%s\n", out.RunID)
	fmt.Fprintf(tw, "Cycles:\t%d\n", out.Cycles)
	fmt.Fprintf(tw, "Zero samples:\t%d (%d unavailable)\n", out.Last.ZeroCount, out.Last.Unavailable)
	fmt.Fprintf(tw, "Idle counter:\t%d -> %d\n", out.Last.Before.NoClientIOCount, out.Last.After.NoClientIOCount)
	if out.Target != nil {
		restart := "ok"
		switch {
		case out.DryRun:
			restart = "dry run"
		case out.RestartErr != "":
			restart = "failed: " + out.RestartErr
		}
		fmt.Fprintf(tw, "Restarted:\tosd.%d (%s)\n", *out.Target, restart)
	}
	notified := "yes"
	if !out.Notified {
		notified = "no"
		if out.NotifyErr != "" {
			notified = "failed: " + out.NotifyErr
		}
	}
	fmt.Fprintf(tw, "Notified:\t%s\n", notified)
	if out.Error != "" {
		fmt.Fprintf(tw, "Error:\t%s\n", out.Error)
	}
	fmt.Fprintf(tw, "Duration:\t%s\n", out.Duration().Round(time.Millisecond))
	fmt.Fprintf(tw, "Exit code:\t%d\n", out.ExitCode())
	tw.Flush()
}

// WindowReport is the machine-readable form of a sampled window.
type WindowReport struct {
	Samples []sampler.Sample `json:"samples"`
	Result  decision.Result  `json:"result"`
	Policy  decision.Policy  `json:"policy"`
}

// DisplayWindow prints one sampled window and the decision it would
// produce.
func DisplayWindow(w io.Writer, window sampler.Window, res decision.Result, policy decision.Policy) {
	if isJSON() {
		writeJSON(w, WindowReport{Samples: window.Samples, Result: res, Policy: policy})
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTATUS\tOPS/S\tDETAIL")
	for i, s := range window.Samples {
		detail := s.Line
		if s.Status != sampler.StatusOK {
			detail = s.LogLine()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, s.Status, humanize.Comma(s.Ops), detail)
	}
	tw.Flush()

	fmt.Fprintln(w)
	summary := fmt.Sprintf("%s: %d/%d zero, reboot at %d, full idle at %d",
		strings.ToUpper(res.Decision.String()), res.ZeroCount, window.Len(),
		policy.RebootThreshold, policy.FullIdleCount)
	fmt.Fprintln(w, banner(summary, decisionColor(res.Decision)))
}

// StateReport is the machine-readable form of the state file.
type StateReport struct {
	Path     string      `json:"path"`
	Exists   bool        `json:"exists"`
	State    state.State `json:"state"`
	Modified *time.Time  `json:"modified,omitempty"`
}

// DisplayState prints the persisted hysteresis counter.
func DisplayState(w io.Writer, report StateReport, confirmThreshold int) {
	if isJSON() {
		writeJSON(w, report)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "State file:\t%s\n", report.Path)
	if !report.Exists {
		fmt.Fprintf(tw, "Status:\tnot created yet (counter starts at 0)\n")
		return
	}
	fmt.Fprintf(tw, "No client IO count:\t%d (confirms idle at %d)\n", report.State.NoClientIOCount, confirmThreshold)
	if report.Modified != nil {
		fmt.Fprintf(tw, "Last updated:\t%s (%s)\n",
			humanize.Time(*report.Modified), report.Modified.Format(time.RFC3339))
	}
}
