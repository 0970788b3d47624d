package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NotApplicable is the Occurrences value PoliCheck emits when no count applies.
const NotApplicable = "N/A"

type Kind int

const (
	KindOther Kind = iota
	KindObject
	KindOccurrences
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindOccurrences:
		return "occurrences"
	default:
		return "other"
	}
}

var (
	ErrMalformedObject = errors.New("malformed Object line")
	ErrMalformedCount  = errors.New("malformed Occurrences line")
)

// LineError reports a report line that carries a recognised tag but not the
// structure that goes with it.
type LineError struct {
	Line int
	Text string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Text)
}

func (e *LineError) Unwrap() error { return e.Err }

// Tags sit one character into the line (the element's "<"). The Occurrences
// value runs from after the tag's separator up to the 14-character closing tag.
// The closing tag must be the literal "</Occurrences>"; any other 14-character
// trailer is rejected rather than sliced off.
var (
	objectTag       = regexp.MustCompile(`^.Object`)
	occurrencesTag  = regexp.MustCompile(`^.Occurrences`)
	occurrencesLine = regexp.MustCompile(`^.Occurrences.(?P<value>.*)</Occurrences>$`)
	valueGroup      = occurrencesLine.SubexpIndex("value")
)

type Diagnostics struct {
	Warnings []string
}

// Line is one classified report line.
type Line struct {
	Number     int
	Kind       Kind
	Object     string // KindObject only
	Count      int    // KindOccurrences only
	Applicable bool   // false when the value was N/A
}

// ParseLine classifies text (line n, 1-based) and extracts the object path or
// the occurrence count. Unrelated lines come back as KindOther with no error.
func ParseLine(n int, text string) (Line, error) {
	text = strings.TrimRight(text, "\r\n")
	ln := Line{Number: n, Kind: KindOther}

	switch {
	case objectTag.MatchString(text):
		path, ok := objectPath(text)
		if !ok {
			return ln, &LineError{Line: n, Text: text, Err: ErrMalformedObject}
		}
		ln.Kind = KindObject
		ln.Object = path

	case occurrencesTag.MatchString(text):
		m := occurrencesLine.FindStringSubmatch(text)
		if m == nil {
			return ln, &LineError{Line: n, Text: text, Err: ErrMalformedCount}
		}
		count, applicable, err := ParseCount(m[valueGroup])
		if err != nil {
			return ln, &LineError{Line: n, Text: text, Err: fmt.Errorf("%w: %v", ErrMalformedCount, err)}
		}
		ln.Kind = KindOccurrences
		ln.Count = count
		ln.Applicable = applicable
	}
	return ln, nil
}

// ParseCount parses an Occurrences value. applicable is false for N/A.
func ParseCount(v string) (count int, applicable bool, err error) {
	v = strings.TrimSpace(v)
	if v == NotApplicable {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// objectPath takes the third space-separated field and returns the text
// between its first pair of double quotes. Paths containing spaces or escaped
// quotes are not supported by the report format.
func objectPath(line string) (string, bool) {
	fields := strings.Split(line, " ")
	if len(fields) < 3 {
		return "", false
	}
	parts := strings.Split(fields[2], `"`)
	if len(parts) < 2 {
		return "", false
	}
	return parts[1], true
}
