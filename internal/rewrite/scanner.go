package rewrite

import (
	"fmt"
	"strings"
)

// The legacy content embeds files with in-house conventions, not valid
// markup, so reference detection is deliberate string scanning. A strict
// HTML or JSON parser would reject the very content this package exists to
// repair.

// span is one replaceable unit in a body: [Start, End).
type span struct {
	Start int
	End   int
}

// tokenSpan locates the first [[ ... ]] block containing a "fid" marker for
// the given file id. The marker is found first, then the delimiters are the
// nearest [[ before it and the nearest ]] after it. A missing delimiter
// means no span; this never fails.
func tokenSpan(body string, fileID int64) (span, bool) {
	idx := strings.Index(body, fmt.Sprintf(`"fid":"%d"`, fileID))
	if idx < 0 {
		// some bodies carry the id unquoted
		idx = unquotedMarker(body, fileID)
	}
	if idx < 0 {
		return span{}, false
	}

	open := strings.LastIndex(body[:idx], "[[")
	if open < 0 {
		return span{}, false
	}
	close := strings.Index(body[idx:], "]]")
	if close < 0 {
		return span{}, false
	}
	return span{Start: open, End: idx + close + 2}, true
}

// unquotedMarker finds the bare "fid":N marker. The id must not continue
// with another digit, so id 4 never claims the block of id 40.
func unquotedMarker(body string, fileID int64) int {
	marker := fmt.Sprintf(`"fid":%d`, fileID)
	for from := 0; from < len(body); {
		idx := strings.Index(body[from:], marker)
		if idx < 0 {
			return -1
		}
		idx += from
		end := idx + len(marker)
		if end >= len(body) || body[end] < '0' || body[end] > '9' {
			return idx
		}
		from = end
	}
	return -1
}

// tagSpan locates the next occurrence of filename at or after from and
// expands it to the enclosing < ... > tag. It returns the span, the
// position scanning must resume from, and whether a replaceable span was
// found. next always advances past the current occurrence so the caller
// never re-matches it.
//
// Any tag containing the filename substring matches, including tags that do
// not actually reference this attachment. That loose behavior is kept on
// purpose: legitimately-embedded references often carry no other marker.
func tagSpan(body, filename string, from int) (s span, next int, found bool) {
	if from >= len(body) {
		return span{}, -1, false
	}
	idx := strings.Index(body[from:], filename)
	if idx < 0 {
		return span{}, -1, false
	}
	idx += from
	next = idx + len(filename)

	open := strings.LastIndex(body[:idx], "<")
	if open < 0 {
		return span{}, next, false
	}
	close := strings.Index(body[idx:], ">")
	if close < 0 {
		return span{}, next, false
	}
	return span{Start: open, End: idx + close + 1}, next, true
}
