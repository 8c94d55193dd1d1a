package notify

import (
	"fmt"
	"strings"

	"github.com/concave-dev/ceph-sentinel/internal/resources"
)

// Severity is the subject prefix of a notification.
type Severity int

const (
	SeverityHealthy Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityCritical
)

// String returns the subject prefix.
func (s Severity) String() string {
	switch s {
	case SeverityHealthy:
		return "HEALTHY"
	case SeverityInfo:
		return "INFO NO Client IO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("SEVERITY(%d)", int(s))
	}
}

// Kind identifies which run outcome a report describes.
type Kind int

const (
	KindHealthy Kind = iota
	KindReboot
	KindIdleConfirmed
	KindIdleUnresolved
	KindSourceUnavailable
)

// Restart describes the actuation attempted for a reboot report.
type Restart struct {
	OSD    int
	Err    error
	DryRun bool
}

// Report holds everything a notification body needs.
type Report struct {
	Kind        Kind
	Location    string
	RunID       string
	Cycles      int
	WindowSize  int
	ZeroCount   int
	Unavailable int
	Restart     *Restart
	Lines       []string // session log, in acquisition order
	Host        *resources.HostSnapshot
}

// Severity maps the report kind to its subject prefix.
func (r Report) Severity() Severity {
	switch r.Kind {
	case KindHealthy:
		return SeverityHealthy
	case KindIdleConfirmed:
		return SeverityInfo
	case KindSourceUnavailable:
		return SeverityCritical
	default:
		return SeverityWarning
	}
}

// Subject renders "<SEVERITY> - <location> <suffix>".
func (r Report) Subject(suffix string) string {
	return fmt.Sprintf("%s - %s %s", r.Severity(), r.Location, suffix)
}

// Body renders the plain-text notification body.
func (r Report) Body() string {
	var b strings.Builder

	for _, line := range r.headline() {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if len(r.Lines) > 0 {
		b.WriteByte('\n')
		for _, line := range r.Lines {
			b.WriteString(" ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	b.WriteString("\n--\n")
	if r.Host != nil {
		for _, line := range r.Host.Footer() {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	if r.Cycles > 0 {
		fmt.Fprintf(&b, "Sampling cycles: %d\n", r.Cycles)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "Run ID: %s\n", r.RunID)
	}

	return b.String()
}

// Message builds the complete notification.
func (r Report) Message(suffix string) Message {
	return Message{Subject: r.Subject(suffix), Body: r.Body()}
}

func (r Report) headline() []string {
	switch r.Kind {
	case KindHealthy:
		return []string{"Ceph cluster is healthy, no OSD reboot required"}
	case KindReboot:
		lines := []string{"Ceph cluster is UNHEALTHY, OSD reboot required"}
		if r.WindowSize > 0 {
			lines = append(lines, fmt.Sprintf("Zero client IO in %d of %d samples", r.ZeroCount, r.WindowSize))
		}
		switch {
		case r.Restart == nil:
		case r.Restart.DryRun:
			lines = append(lines, fmt.Sprintf("Dry run, OSD not restarted: %d", r.Restart.OSD))
		case r.Restart.Err != nil:
			lines = append(lines,
				fmt.Sprintf("Failed to reboot OSD: %d", r.Restart.OSD),
				fmt.Sprintf("Error: %v", r.Restart.Err))
		default:
			lines = append(lines, fmt.Sprintf("Successfully restarted OSD: %d", r.Restart.OSD))
		}
		return lines
	case KindIdleConfirmed:
		return []string{"No client IO detected"}
	case KindIdleUnresolved:
		return []string{
			fmt.Sprintf("Client IO still near-silent after %d sampling cycles, idle state unresolved", r.Cycles),
			"No OSD was restarted, manual check required",
		}
	case KindSourceUnavailable:
		return []string{
			"Unable to sample Ceph client IO",
			fmt.Sprintf("%d of %d samples failed or timed out, no OSD reboot attempted", r.Unavailable, r.WindowSize),
		}
	default:
		return []string{fmt.Sprintf("Unknown sentinel outcome %d", int(r.Kind))}
	}
}
