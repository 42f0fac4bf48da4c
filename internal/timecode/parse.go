package timecode

import (
	"fmt"
	"strings"
)

// Parse reads a human timestamp of one of the following shapes:
//
//	MM:SS
//	MM:SS.mmm[.uuu[.nnn]]
//	HH:MM:SS
//	HH:MM:SS.mmm[.uuu]
//
// The second separator decides whether the first field is hours (":") or the
// value starts at minutes ("."). Extra trailing input is rejected.
func Parse(value string) (Timestamp, error) {
	p := parser{input: value}

	nb1, err := p.digits()
	if err != nil {
		return 0, err
	}
	if err := p.expect(':'); err != nil {
		return 0, err
	}
	nb2, err := p.digits()
	if err != nil {
		return 0, err
	}

	var h, m, s, ms, us, nano uint64
	switch {
	case p.accept(':'):
		h, m = nb1, nb2
		if s, err = p.digits(); err != nil {
			return 0, err
		}
		ms = p.optDotDigits()
		us = p.optDotDigits()
	case p.accept('.'):
		m, s = nb1, nb2
		if ms, err = p.digits(); err != nil {
			return 0, err
		}
		us = p.optDotDigits()
		nano = p.optDotDigits()
	default:
		m, s = nb1, nb2
	}

	if !p.done() {
		return 0, fmt.Errorf("timestamp %q: unexpected trailing %q", value, p.rest())
	}
	if m > 59 && h > 0 {
		return 0, fmt.Errorf("timestamp %q: minutes out of range", value)
	}

	total := ((((h*60+m)*60+s)*1_000+ms)*1_000+us)*1_000 + nano
	return Timestamp(total), nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) done() bool { return p.pos >= len(p.input) }

func (p *parser) rest() string { return p.input[p.pos:] }

func (p *parser) accept(c byte) bool {
	if p.done() || p.input[p.pos] != c {
		return false
	}
	p.pos++
	return true
}

func (p *parser) expect(c byte) error {
	if !p.accept(c) {
		return fmt.Errorf("timestamp %q: expected %q at offset %d", p.input, string(c), p.pos)
	}
	return nil
}

func (p *parser) digits() (uint64, error) {
	start := p.pos
	var n uint64
	for !p.done() {
		c := p.input[p.pos]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + uint64(c-'0')
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("timestamp %q: expected digits at offset %d", p.input, p.pos)
	}
	return n, nil
}

// optDotDigits consumes an optional ".NNN" group and returns its value, or
// zero when absent. A dot not followed by digits is left unconsumed so the
// caller reports it as trailing garbage.
func (p *parser) optDotDigits() uint64 {
	mark := p.pos
	if !p.accept('.') {
		return 0
	}
	n, err := p.digits()
	if err != nil {
		p.pos = mark
		return 0
	}
	return n
}

// ParsePrefix is like Parse but stops at the first byte that cannot extend
// the timestamp, returning the value and the unconsumed remainder.
func ParsePrefix(value string) (Timestamp, string, error) {
	end := len(value)
	for i := 0; i < len(value); i++ {
		c := value[i]
		if (c < '0' || c > '9') && c != ':' && c != '.' {
			end = i
			break
		}
	}
	ts, err := Parse(strings.TrimSpace(value[:end]))
	if err != nil {
		return 0, value, err
	}
	return ts, value[end:], nil
}
