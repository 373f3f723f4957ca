package helpers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/dbankscard/hookguard/internal/domain"
)

var (
	colorOK    = lipgloss.Color("#2CD7C7")
	colorWarn  = lipgloss.Color("#F4D03F")
	colorError = lipgloss.Color("#E74C3C")
	colorMuted = lipgloss.Color("#5C7A84")
)

// Printer renders human readable summaries. Colour is only used when the
// destination is a terminal and NO_COLOR is unset.
type Printer struct {
	out   io.Writer
	color bool

	title lipgloss.Style
	ok    lipgloss.Style
	warn  lipgloss.Style
	bad   lipgloss.Style
	muted lipgloss.Style
}

// NewPrinter builds a printer for out.
func NewPrinter(out io.Writer) *Printer {
	return newPrinter(out, IsTerminal(out) && os.Getenv("NO_COLOR") == "")
}

// NewPlainPrinter never emits escape sequences.
func NewPlainPrinter(out io.Writer) *Printer {
	return newPrinter(out, false)
}

func newPrinter(out io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:   out,
		color: color,
		title: r.NewStyle().Bold(true),
		ok:    r.NewStyle().Foreground(colorOK),
		warn:  r.NewStyle().Foreground(colorWarn),
		bad:   r.NewStyle().Foreground(colorError).Bold(true),
		muted: r.NewStyle().Foreground(colorMuted),
	}
}

// IsTerminal reports whether w is a terminal file descriptor.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) paint(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *Printer) line(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) severity(sev domain.Severity) string {
	label := "[" + string(sev) + "]"
	switch sev {
	case domain.SeverityCritical, domain.SeverityHigh:
		return p.paint(p.bad, label)
	case domain.SeverityMedium:
		return p.paint(p.warn, label)
	default:
		return p.paint(p.muted, label)
	}
}

// ScanSummary prints the verdict, the first critical findings with their
// fix and the visible findings at or above threshold.
func (p *Printer) ScanSummary(rep domain.ScanReport, threshold domain.Severity) {
	summary := rep.Summary
	switch rep.Status {
	case domain.BandExcellent:
		summary = p.paint(p.ok, summary)
	case domain.BandGood:
		summary = p.paint(p.warn, summary)
	default:
		summary = p.paint(p.bad, summary)
	}
	p.line("%s", summary)
	p.line("Scanned %s files, %s findings", humanize.Comma(int64(rep.FilesScanned)), humanize.Comma(int64(rep.FindingsCount)))

	if n := len(rep.CriticalFindings); n > 0 {
		p.line("")
		p.line("%s", p.paint(p.title, "Critical issues:"))
		for i, f := range rep.CriticalFindings {
			if i == domain.CriticalFindingsPrinted {
				p.line("  %s", p.paint(p.muted, fmt.Sprintf("... and %d more", n-i)))
				break
			}
			p.line("  %s %s %s", p.severity(f.Severity), f.Location(), f.Title)
			if f.Remediation != "" {
				p.line("      Fix: %s", f.Remediation)
			}
		}
	}

	var rest []domain.Finding
	for _, f := range rep.Findings {
		if f.Severity != domain.SeverityCritical && f.Severity.AtLeast(threshold) {
			rest = append(rest, f)
		}
	}
	if len(rest) > 0 {
		p.line("")
		p.line("%s", p.paint(p.title, "Other findings:"))
		for _, f := range rest {
			p.line("  %s %s %s", p.severity(f.Severity), f.Location(), f.Title)
		}
	}

	if rep.HardFailure {
		p.line("")
		p.line("%s %s", p.paint(p.bad, "FAILED:"), strings.Join(rep.FailureReasons, "; "))
	}
}

// TriggerSummary prints the change context and the state of every
// recommended reviewer.
func (p *Printer) TriggerSummary(a domain.TriggerAnalysis, now time.Time) {
	p.line("%s", p.paint(p.title, "Automation analysis"))
	branch := a.Branch
	if branch == "" {
		branch = "unknown"
	}
	p.line("Branch: %s", branch)
	p.line("Changed files: %d (%s lines)", len(a.ChangedFiles), humanize.Comma(int64(a.LinesChanged)))
	if a.TestStatus.Status != "" && a.TestStatus.Status != "unknown" {
		p.line("Tests: %d passed, %d failed", a.TestStatus.Passed, a.TestStatus.Failed)
	}
	if a.SecurityAlerts > 0 {
		p.line("Security alerts: %s", p.paint(p.bad, fmt.Sprint(a.SecurityAlerts)))
	}

	p.line("")
	if len(a.Recommendations) == 0 {
		p.line("No immediate actions required")
		return
	}
	p.line("%s", p.paint(p.title, "Recommended actions:"))
	for _, rec := range a.Recommendations {
		if rec.Triggered {
			p.line("  %s %s: %s", p.paint(p.ok, "+"), rec.Reviewer, rec.Reason)
			continue
		}
		note := rec.SkipReason
		if rec.LastRun != nil {
			note += ", last " + humanize.RelTime(*rec.LastRun, now, "ago", "from now")
		}
		p.line("  %s %s: %s (%s)", p.paint(p.muted, "-"), rec.Reviewer, rec.Reason, note)
	}
	if a.Triggered > 0 {
		p.line("")
		p.line("Triggered %d automated actions", a.Triggered)
	}
}

// Statistics prints the approval counters.
func (p *Printer) Statistics(s domain.Statistics) {
	p.line("%s", p.paint(p.title, "Approval statistics"))
	p.line("Total commands: %s", humanize.Comma(int64(s.TotalCommands)))
	p.line("Auto-approved:  %s (%.1f%%)", humanize.Comma(int64(s.AutoApproved)), s.AutoApproveRate())
	p.line("User-approved:  %s", humanize.Comma(int64(s.UserApproved)))
	p.line("Rejected:       %s", humanize.Comma(int64(s.Rejected)))
	p.line("Risk distribution:")
	for _, bucket := range RiskDistribution(s.ByRiskLevel) {
		p.line("  %-8s %d (%.1f%%)", bucket.Level, bucket.Count, Percentage(bucket.Count, s.TotalCommands))
	}
	if !s.UpdatedAt.IsZero() {
		p.line("%s", p.paint(p.muted, "Updated "+s.UpdatedAt.Format(domain.TimestampFormat)))
	}
}

// AuditEntries prints one line per entry.
func (p *Printer) AuditEntries(entries []domain.AuditEntry) {
	for _, e := range entries {
		outcome := "rejected"
		switch {
		case e.AutoApproved:
			outcome = "auto"
		case e.UserApproved:
			outcome = "user"
		}
		p.line("%s | %-8s | %-8s | %-9s | %s",
			e.Timestamp.Format(domain.TimestampFormat), e.RiskLevel, outcome, e.Verdict, e.Command)
	}
}

// Rules prints one line per rule.
func (p *Printer) Rules(rules []domain.Rule) {
	for _, r := range rules {
		level := string(r.Severity)
		if level == "" {
			level = string(r.RiskLevel)
		}
		if level == "" {
			level = "-"
		}
		p.line("%-13s %-8s %-36s %s", r.Category, level, r.Label(), p.paint(p.muted, r.Pattern))
	}
}
