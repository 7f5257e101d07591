package schema

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	wordPattern     = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)
	relationPattern = regexp.MustCompile(`^([\p{L}\p{N}_]+)\s*\((.*)\)$`)
)

// ParseError reports input that does not follow the relation or
// dependency syntax.
type ParseError struct {
	Line    int // 1-based line within a multi-line input, 0 if not applicable
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Message, e.Input)
	}
	return fmt.Sprintf("%s: %q", e.Message, e.Input)
}

// ParseRelation parses "Name(a, b, c)". Attributes may be separated by
// commas, whitespace or both.
//
//	ParseRelation("Courses(courseCode, courseName, credits)")
func ParseRelation(s string) (Relation, error) {
	line := norm.NFC.String(strings.TrimSpace(s))
	m := relationPattern.FindStringSubmatch(line)
	if m == nil {
		return Relation{}, &ParseError{Input: s, Message: "expected Name(attr, ...)"}
	}

	words := splitWords(m[2], true)
	if len(words) == 0 {
		return Relation{}, &ParseError{Input: s, Message: "relation has no attributes"}
	}
	for _, w := range words {
		if !wordPattern.MatchString(w) {
			return Relation{}, &ParseError{Input: s, Message: fmt.Sprintf("invalid attribute name %q", w)}
		}
	}

	return Relation{Name: m[1], Attributes: SetOf(words...)}, nil
}

// ParseFD parses "a b -> c d".
func ParseFD(s string) (FD, error) {
	line := norm.NFC.String(strings.TrimSpace(s))
	lhs, rhs, ok := strings.Cut(line, "->")
	if !ok {
		return FD{}, &ParseError{Input: s, Message: "missing ->"}
	}

	x, err := parseSide(s, lhs, "left")
	if err != nil {
		return FD{}, err
	}
	y, err := parseSide(s, rhs, "right")
	if err != nil {
		return FD{}, err
	}
	return FD{X: x, Y: y}, nil
}

// ParseFDs parses one dependency per line. Blank lines and lines starting
// with '#' are skipped.
func ParseFDs(text string) ([]FD, error) {
	var fds []FD
	err := eachLine(text, func(n int, line string) error {
		fd, err := ParseFD(line)
		if err != nil {
			return atLine(err, n)
		}
		fds = append(fds, fd)
		return nil
	})
	return fds, err
}

// ParseSchema parses a relation line followed by dependency lines:
//
//	Courses(courseCode, courseName, credits, teacherID, teacherName)
//	courseCode -> courseName credits teacherID
//	teacherID -> teacherName
func ParseSchema(text string) (Schema, error) {
	var s Schema
	seenRelation := false
	err := eachLine(text, func(n int, line string) error {
		if !seenRelation {
			rel, err := ParseRelation(line)
			if err != nil {
				return atLine(err, n)
			}
			s.Relation = rel
			seenRelation = true
			return nil
		}
		fd, err := ParseFD(line)
		if err != nil {
			return atLine(err, n)
		}
		s.Dependencies = append(s.Dependencies, fd)
		return nil
	})
	if err != nil {
		return Schema{}, err
	}
	if !seenRelation {
		return Schema{}, &ParseError{Message: "no relation declared"}
	}
	return s, nil
}

// ParseAttribute validates and NFC-normalizes a single attribute name.
func ParseAttribute(s string) (Attribute, error) {
	name := norm.NFC.String(strings.TrimSpace(s))
	if !wordPattern.MatchString(name) {
		return "", &ParseError{Input: s, Message: "invalid attribute name"}
	}
	return Attribute(name), nil
}

// ParseAttributes parses a whitespace- or comma-separated list of names.
func ParseAttributes(s string) (AttributeSet, error) {
	words := splitWords(norm.NFC.String(s), true)
	for _, w := range words {
		if !wordPattern.MatchString(w) {
			return AttributeSet{}, &ParseError{Input: s, Message: fmt.Sprintf("invalid attribute name %q", w)}
		}
	}
	return SetOf(words...), nil
}

func parseSide(input, side, which string) (AttributeSet, error) {
	words := splitWords(side, false)
	if len(words) == 0 {
		return AttributeSet{}, &ParseError{Input: input, Message: which + " side is empty"}
	}
	for _, w := range words {
		if !wordPattern.MatchString(w) {
			return AttributeSet{}, &ParseError{Input: input, Message: fmt.Sprintf("invalid attribute name %q", w)}
		}
	}
	return SetOf(words...), nil
}

func splitWords(s string, commas bool) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (commas && r == ',')
	})
}

func eachLine(text string, fn func(n int, line string) error) error {
	scanner := bufio.NewScanner(strings.NewReader(text))
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(n, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func atLine(err error, n int) error {
	if pe, ok := err.(*ParseError); ok {
		pe.Line = n
	}
	return err
}
