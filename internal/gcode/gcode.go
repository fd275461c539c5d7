// Package gcode implements the Command Source contract of spec.md §4.F
// and §6: a lexer/parser that yields a finite stream of validated
// commands, rejecting malformed, duplicate, unsupported or
// out-of-soft-limit lines before any motion starts.
//
// Grounded on original_source/gcode_parser.py's parse_line (letter/number
// tokenizing, duplicate/limit/support checks) and
// original_source/gcode_exceptions.py's exception taxonomy, mapped onto
// internal/cncerr's sentinel kinds. Lines are tokenized with
// strings.Fields and strconv.ParseFloat, one letter-plus-number field at
// a time.
package gcode

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"cncrouter/internal/cncerr"
)

// Kind enumerates the supported G/M codes (spec.md §6, plus the
// supplemented G92 set-position).
type Kind int

const (
	Rapid           Kind = iota // G00
	LinearInterp                // G01
	ArcCW                       // G02
	ArcCCW                      // G03
	PlaneXY                     // G17
	PlaneXZ                     // G18
	PlaneYZ                     // G19
	Home                        // G28
	SetPosition                 // G92
)

var supportedG = map[int]Kind{
	0:  Rapid,
	1:  LinearInterp,
	2:  ArcCW,
	3:  ArcCCW,
	17: PlaneXY,
	18: PlaneXZ,
	19: PlaneYZ,
	28: Home,
	92: SetPosition,
}

// Command is one parsed, validated line: a kind plus its letter
// parameters (spec.md §4.F: "a map from letter ... to float or integer").
type Command struct {
	Kind   Kind
	Params map[byte]float64
	Line   int
}

// HasParam reports whether letter was present on this line.
func (c Command) HasParam(letter byte) bool {
	_, ok := c.Params[letter]
	return ok
}

// Limits is the soft-limit interval checker the parser consults for
// X/Y/Z parameters (spec.md §6 "X/Y/Z must lie within configured soft
// limits").
type Limits interface {
	// InLimits reports whether v is within [min, max] for the given axis
	// letter ('X', 'Y', or 'Z').
	InLimits(axis byte, v float64) bool
}

// Parser tokenizes and validates G-code text per spec.md §6's parse
// rules, against a machine's configured soft limits.
type Parser struct {
	limits Limits
}

// NewParser builds a Parser that checks X/Y/Z parameters against limits.
func NewParser(limits Limits) *Parser {
	return &Parser{limits: limits}
}

// ParseAll reads every line from r, returning the full validated command
// stream or the first error encountered (spec.md §7: parse/limit errors
// "abort the run before any motion").
func (p *Parser) ParseAll(r io.Reader) ([]Command, error) {
	var cmds []Command
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}
		cmd, err := p.parseLine(line, lineNo)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, cncerr.NewAtf(cncerr.Parse, lineNo, "read error: %v", err)
	}
	return cmds, nil
}

func (p *Parser) parseLine(line string, lineNo int) (Command, error) {
	raw := make(map[byte]float64)
	tokens := strings.Fields(strings.ToUpper(line))

	for _, tok := range tokens {
		letter := tok[0]
		if letter < 'A' || letter > 'Z' {
			return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "invalid parameter letter %q", tok)
		}
		if _, dup := raw[letter]; dup {
			return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "duplicate parameter %c", letter)
		}
		val, err := strconv.ParseFloat(tok[1:], 64)
		if err != nil {
			return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "invalid parameter value %q", tok)
		}
		if (letter == 'X' || letter == 'Y' || letter == 'Z') && p.limits != nil {
			if !p.limits.InLimits(letter, val) {
				return Command{}, cncerr.NewAtf(cncerr.Limit, lineNo, "%c=%v outside soft limit", letter, val)
			}
		}
		if letter == 'N' && val < 0 {
			return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "negative line number")
		}
		raw[letter] = val
	}

	hasG := false
	if _, ok := raw['G']; ok {
		hasG = true
	}
	_, hasM := raw['M']
	if !hasG && !hasM {
		return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "no G or M code found")
	}
	if hasG && hasM {
		return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "both G and M present")
	}
	if hasM {
		return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "M-codes are not supported by the motion core")
	}

	gnum := int(raw['G'])
	kind, ok := supportedG[gnum]
	if !ok {
		return Command{}, cncerr.NewAtf(cncerr.Parse, lineNo, "unsupported G-code G%02d", gnum)
	}
	delete(raw, 'G')

	if err := validateKindParams(kind, raw, lineNo); err != nil {
		return Command{}, err
	}

	return Command{Kind: kind, Params: raw, Line: lineNo}, nil
}

func validateKindParams(kind Kind, params map[byte]float64, lineNo int) error {
	axisCount := func() int {
		n := 0
		for _, l := range []byte{'X', 'Y', 'Z'} {
			if _, ok := params[l]; ok {
				n++
			}
		}
		return n
	}
	switch kind {
	case Rapid:
		if axisCount() == 0 {
			return cncerr.NewAtf(cncerr.Parse, lineNo, "G00 requires at least one of X/Y/Z")
		}
	case LinearInterp:
		if axisCount() != 2 {
			return cncerr.NewAtf(cncerr.InvalidParameters, lineNo, "G01 requires exactly two of X/Y/Z")
		}
	case ArcCW, ArcCCW:
		if axisCount() != 2 {
			return cncerr.NewAtf(cncerr.Parse, lineNo, "arc moves require exactly two of X/Y/Z")
		}
		_, hasR := params['R']
		_, hasI := params['I']
		_, hasJ := params['J']
		_, hasK := params['K']
		if !hasR && !(hasI || hasJ || hasK) {
			return cncerr.NewAtf(cncerr.InvalidParameters, lineNo, "arc moves require R or I/J/K")
		}
	case PlaneXY, PlaneXZ, PlaneYZ:
		if axisCount() != 0 {
			return cncerr.NewAtf(cncerr.Parse, lineNo, "XYZ not allowed during plane selection")
		}
	case Home:
		if axisCount() != 0 {
			return cncerr.NewAtf(cncerr.Parse, lineNo, "XYZ not allowed during homing")
		}
	case SetPosition:
		if axisCount() == 0 {
			return cncerr.NewAtf(cncerr.Parse, lineNo, "G92 requires at least one of X/Y/Z")
		}
	}
	return nil
}
