package osc

import (
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxRangeCount is the largest number of instances an indexed node or
// subsystem may have.
const MaxRangeCount = 64

// GlobMatch reports whether text matches pattern. Patterns support
//
//	?        any single character
//	*        any run of characters, the empty run included
//	[a-z]    one character from a set; [!...] negates it
//	{a,b}    one of the literal alternatives
//	\c       the literal character c
//
// A set or alternation without its closing bracket never matches. A
// trailing lone backslash matches only the end of text.
func GlobMatch(pattern, text string) bool {
	for len(pattern) > 0 {
		switch c := pattern[0]; c {
		case '?':
			if len(text) == 0 {
				return false
			}
			pattern, text = pattern[1:], text[1:]

		case '*':
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(text); i++ {
				if GlobMatch(pattern, text[i:]) {
					return true
				}
			}
			return false

		case '[':
			end := strings.IndexByte(pattern[1:], ']')
			if end < 0 || len(text) == 0 {
				return false
			}
			if !matchSet(pattern[1:1+end], text[0]) {
				return false
			}
			pattern, text = pattern[end+2:], text[1:]

		case '{':
			end := strings.IndexByte(pattern, '}')
			if end < 0 {
				return false
			}
			rest := pattern[end+1:]
			for _, alt := range strings.Split(pattern[1:end], ",") {
				if strings.HasPrefix(text, alt) && GlobMatch(rest, text[len(alt):]) {
					return true
				}
			}
			return false

		case '\\':
			if len(pattern) == 1 {
				return len(text) == 0
			}
			if len(text) == 0 || text[0] != pattern[1] {
				return false
			}
			pattern, text = pattern[2:], text[1:]

		default:
			if len(text) == 0 || text[0] != c {
				return false
			}
			pattern, text = pattern[1:], text[1:]
		}
	}
	return len(text) == 0
}

// matchSet matches c against the inside of a [...] expression.
func matchSet(set string, c byte) bool {
	negate := false
	if len(set) > 0 && set[0] == '!' {
		negate, set = true, set[1:]
	}
	found := false
	for i := 0; i < len(set) && !found; i++ {
		if i+2 < len(set) && set[i+1] == '-' {
			lo, hi := set[i], set[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			found = c >= lo && c <= hi
			i += 2
			continue
		}
		found = set[i] == c
	}
	return found != negate
}

// Range is the set of instance indices an address element selected. Indices
// are zero-based, relative to the offset passed to NumberMatch.
type Range struct {
	mask uint64
}

// SingleIndex returns a Range holding only i.
func SingleIndex(i int) Range {
	return Range{mask: 1 << uint(i)}
}

// Mask returns the selection as a bitmask, bit i standing for index i.
func (r Range) Mask() uint64 { return r.mask }

// Len returns the number of selected indices.
func (r Range) Len() int { return bits.OnesCount64(r.mask) }

// Contains reports whether index i is selected.
func (r Range) Contains(i int) bool {
	return i >= 0 && i < MaxRangeCount && r.mask&(1<<uint(i)) != 0
}

// HasNext reports whether Next has indices left to return.
func (r *Range) HasNext() bool { return r.mask != 0 }

// Next removes and returns the lowest selected index.
func (r *Range) Next() int {
	i := bits.TrailingZeros64(r.mask)
	r.mask &^= 1 << uint(i)
	return i
}

// NumberMatch resolves an address element naming instances offset through
// offset+count-1. A plain decimal selects one instance; an element holding
// any of *?[{ is matched against the decimal name of every instance.
// Anything else, or a selection of nothing, is ErrIllegalIndex.
func NumberMatch(elem string, offset, count int) (Range, error) {
	if count < 1 || count > MaxRangeCount {
		return Range{}, errors.Wrapf(ErrIllegalIndex, "instance count %d", count)
	}

	if isDecimal(elem) {
		n, err := strconv.Atoi(elem)
		if err != nil || n < offset || n >= offset+count {
			return Range{}, errors.Wrapf(ErrIllegalIndex, "index %q", elem)
		}
		return SingleIndex(n - offset), nil
	}

	if !strings.ContainsAny(elem, "*?[{") {
		return Range{}, errors.Wrapf(ErrIllegalIndex, "index %q", elem)
	}
	var r Range
	for i := 0; i < count; i++ {
		if GlobMatch(elem, strconv.Itoa(offset+i)) {
			r.mask |= 1 << uint(i)
		}
	}
	if r.mask == 0 {
		return Range{}, errors.Wrapf(ErrIllegalIndex, "pattern %q selects nothing", elem)
	}
	return r, nil
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
