// Package output renders an audit report: the persisted JSON file, the
// verbose JSON dump and the colored per-key console summary.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/girste/cyberaudit/internal/report"
)

// Key status, shown as a traffic light in the summary
const (
	StatusGreen  = "green"  // value collected
	StatusYellow = "yellow" // informational: unsupported, unavailable or not installed
	StatusRed    = "red"    // "Error: ..." value
)

const (
	errorPrefix  = "Error: "
	maxDetailLen = 60
)

var informational = []string{
	"Not supported on Windows",
	"Firewall status unavailable",
	"Use PowerShell for detailed group info",
	"not installed",
}

var (
	cBold   = color.New(color.Bold).SprintFunc()
	cGreen  = color.New(color.FgGreen).SprintFunc()
	cRed    = color.New(color.FgRed).SprintFunc()
	cYellow = color.New(color.FgYellow).SprintFunc()
	cDim    = color.New(color.Faint).SprintFunc()
)

// KeyStatus summarizes one report entry
type KeyStatus struct {
	Key    string
	Status string
	Detail string
}

// Summary is the console view of a completed audit
type Summary struct {
	RunID    string
	Entries  []KeyStatus
	Duration time.Duration
}

// Errors counts entries whose value is a failure
func (s *Summary) Errors() int {
	n := 0
	for _, e := range s.Entries {
		if e.Status == StatusRed {
			n++
		}
	}
	return n
}

// Summarize classifies every report entry, in report order
func Summarize(runID string, rep *report.Report, duration time.Duration) *Summary {
	s := &Summary{RunID: runID, Duration: duration}
	for _, key := range rep.Keys() {
		value, _ := rep.Get(key)
		status, detail := classify(value)
		s.Entries = append(s.Entries, KeyStatus{Key: key, Status: status, Detail: detail})
	}
	return s
}

func classify(value any) (string, string) {
	switch v := value.(type) {
	case string:
		return stringStatus(v), firstLine(v)
	case []string:
		if len(v) == 1 && strings.HasPrefix(v[0], errorPrefix) {
			return StatusRed, firstLine(v[0])
		}
		return StatusGreen, plural(len(v), "entry", "entries")
	case *report.Mapping:
		status, bad := StatusGreen, 0
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			if s := stringStatus(pair.Value); s != StatusGreen {
				bad++
				if s == StatusRed || status == StatusGreen {
					status = s
				}
			}
		}
		detail := plural(v.Len(), "field", "fields")
		if bad > 0 {
			detail += fmt.Sprintf(", %d unavailable", bad)
		}
		return status, detail
	case map[string]string:
		return StatusGreen, plural(len(v), "match", "matches")
	default:
		return StatusGreen, ""
	}
}

func stringStatus(s string) string {
	if strings.HasPrefix(s, errorPrefix) {
		return StatusRed
	}
	for _, marker := range informational {
		if strings.Contains(s, marker) {
			return StatusYellow
		}
	}
	return StatusGreen
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	if len(s) > maxDetailLen {
		s = s[:maxDetailLen] + "..."
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

// Formatter writes the console summary
type Formatter struct {
	verbose bool
}

// NewFormatter creates a new formatter. Verbose summaries list every key,
// otherwise only counts and failing keys are shown.
func NewFormatter(verbose bool) *Formatter {
	return &Formatter{verbose: verbose}
}

// WriteSummary renders s to w
func (f *Formatter) WriteSummary(w io.Writer, s *Summary) error {
	var sb strings.Builder

	for _, e := range s.Entries {
		if !f.verbose && e.Status == StatusGreen {
			continue
		}
		fmt.Fprintf(&sb, "  %s %-16s %s\n", icon(e.Status), e.Key, cDim(e.Detail))
	}
	sb.WriteString(f.ToSummary(s))
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// ToSummary outputs a one-line summary
func (f *Formatter) ToSummary(s *Summary) string {
	errs := s.Errors()
	counts := fmt.Sprintf("%s collected", plural(len(s.Entries), "key", "keys"))
	failed := cGreen("0 errors")
	if errs > 0 {
		failed = cRed(plural(errs, "error", "errors"))
	}
	return fmt.Sprintf("%s %s | %s | %s",
		cBold("Audit finished"), cDim("in "+s.Duration.Round(time.Millisecond).String()), counts, failed)
}

func icon(status string) string {
	switch status {
	case StatusRed:
		return cRed("✘")
	case StatusYellow:
		return cYellow("!")
	default:
		return cGreen("✔")
	}
}

// ConfigureColor disables color when asked to or when f is not a terminal
func ConfigureColor(noColor bool, f *os.File) {
	if noColor || os.Getenv("NO_COLOR") != "" || f == nil || !term.IsTerminal(int(f.Fd())) {
		color.NoColor = true
	}
}

// Saved returns the confirmation line printed after persisting
func Saved(filename string) string {
	return fmt.Sprintf("%s Report saved as %s", cGreen("[✔]"), filename)
}
