package digest

import (
	"encoding/json"
	"fmt"
	"iter"
	"path"
	"strings"

	"github.com/nemanjakrstic/snitch/internal/types"
)

const (
	// MaxFailures is the largest number of failing cases still worth summarizing.
	MaxFailures = 10
	// MaxMessageLines caps how many lines of each message body a detailed line carries.
	MaxMessageLines = 5

	indent = "    "
)

// Digest is an insertion-ordered set of formatted failure lines.
// The zero value is an empty digest ready to use.
type Digest struct {
	lines []string
	seen  map[string]struct{}
}

// Add inserts line unless an identical line is already present.
// Returns true if the line was new.
func (d *Digest) Add(line string) bool {
	if d.seen == nil {
		d.seen = make(map[string]struct{})
	}
	if _, exists := d.seen[line]; exists {
		return false
	}
	d.seen[line] = struct{}{}
	d.lines = append(d.lines, line)
	return true
}

// Len returns the number of distinct lines.
func (d Digest) Len() int { return len(d.lines) }

// Empty reports whether the digest holds no lines.
func (d Digest) Empty() bool { return len(d.lines) == 0 }

// Contains reports whether line is in the digest.
func (d Digest) Contains(line string) bool {
	_, ok := d.seen[line]
	return ok
}

// Lines returns a copy of the lines in insertion order.
func (d Digest) Lines() []string {
	if len(d.lines) == 0 {
		return nil
	}
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// String joins the lines for display.
func (d Digest) String() string {
	return strings.Join(d.lines, "\n")
}

// MarshalJSON encodes the digest as an ordered JSON array.
func (d Digest) MarshalJSON() ([]byte, error) {
	if d.lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d.lines)
}

// Build turns the failing cases surfaced for one pipeline run into a digest.
//
// Only cases typed failure or error are considered. When none qualify, or
// more than MaxFailures do, the result is empty: too little signal or too
// much noise to summarize. Cases that produce no text are dropped.
func Build(cases iter.Seq2[types.TestCase, types.TestSuiteReport], detail bool) Digest {
	var failing []types.TestCase
	for tc := range cases {
		if tc.Type.IsFailing() {
			failing = append(failing, tc)
		}
	}

	var d Digest
	if len(failing) == 0 || len(failing) > MaxFailures {
		return d
	}

	for _, tc := range failing {
		if line, ok := FormatCase(tc, detail); ok {
			d.Add(line)
		}
	}
	return d
}

// FormatCase renders a single failing case. The second return value is false
// when the case carries neither a file nor a class name.
func FormatCase(tc types.TestCase, detail bool) (string, bool) {
	switch {
	case tc.File != "":
		var b strings.Builder
		b.WriteString(path.Base(strings.ReplaceAll(tc.File, "\\", "/")))
		if tc.Line > 0 {
			fmt.Fprintf(&b, " Line: %d", tc.Line)
		}
		b.WriteString("\n")
		if detail {
			for _, m := range tc.Messages {
				for _, l := range firstLines(m, MaxMessageLines) {
					b.WriteString(indent + l + "\n")
				}
			}
		} else {
			b.WriteString("\n" + indent + tc.Name)
		}
		b.WriteString("\n")
		return b.String(), true
	case tc.ClassName != "":
		return tc.ClassName, true
	default:
		return "", false
	}
}

func firstLines(s string, n int) []string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return lines
}
