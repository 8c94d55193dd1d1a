package sampler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNoIndicator is returned by ParseClientIO when no line carries the indicator.
var ErrNoIndicator = errors.New("no client io detected")

// ParseError reports an indicator line whose op count could not be read.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparsable client io line %q: %s", e.Line, e.Reason)
}

// ClientIOLines returns every line of status output containing indicator,
// trimmed and in output order.
func ClientIOLines(output, indicator string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, indicator) {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return lines
}

// ParseClientIO finds the last line of status output containing indicator
// and returns the operation count it reports. The count is the leading
// number of the second comma-separated field, as printed by `ceph -s`:
//
//	client io 1093 kB/s wr, 22 op/s
//
// yields 22. Lines are matched case-sensitively and returned trimmed.
func ParseClientIO(output, indicator string) (int64, string, error) {
	lines := ClientIOLines(output, indicator)
	if len(lines) == 0 {
		return 0, "", ErrNoIndicator
	}
	match := lines[len(lines)-1]

	fields := strings.Split(match, ",")
	if len(fields) < 2 {
		return 0, match, &ParseError{Line: match, Reason: "expected at least two comma-separated fields"}
	}

	tokens := strings.Fields(fields[1])
	if len(tokens) == 0 {
		return 0, match, &ParseError{Line: match, Reason: "second field is empty"}
	}

	ops, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return 0, match, &ParseError{Line: match, Reason: fmt.Sprintf("op count %q is not an integer", tokens[0])}
	}
	if ops < 0 {
		return 0, match, &ParseError{Line: match, Reason: "op count is negative"}
	}

	return ops, match, nil
}
