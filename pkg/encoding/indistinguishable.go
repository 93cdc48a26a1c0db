package encoding

// MasksOverlap reports whether some word could match both match strings.
// Strings are aligned at their low end; bits beyond the shorter string act
// as wildcards.
func MasksOverlap(a, b string) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ca, cb := charAt(a, i), charAt(b, i)
		if ca == '-' || cb == '-' {
			continue
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// charAt returns the character for word bit i of a match string, '-' when
// the string is too short.
func charAt(s string, i int) byte {
	if i >= len(s) {
		return '-'
	}
	return s[len(s)-1-i]
}

// choice is one excluded value assigned to one operand.
type choice struct {
	op    *Operand
	value uint64
}

// exclusionCombos returns the cross product of excluded values: each
// combination picks exactly one excluded value for every operand that has
// any. Operands without exclusions do not take part. Returns nil when no
// operand has exclusions.
func exclusionCombos(operands []*Operand) [][]choice {
	var combos [][]choice
	for _, op := range operands {
		if len(op.Excludes) == 0 {
			continue
		}
		if combos == nil {
			combos = [][]choice{{}}
		}
		next := make([][]choice, 0, len(combos)*len(op.Excludes))
		for _, c := range combos {
			for _, v := range op.Excludes {
				nc := make([]choice, len(c), len(c)+1)
				copy(nc, c)
				next = append(next, append(nc, choice{op: op, value: v}))
			}
		}
		combos = next
	}
	return combos
}

// pinned reports whether every bit substituted into orig to get repl is a
// fixed bit of other with the same value. In that case the two encodings
// only meet where the substituted operand holds that exact value.
func pinned(orig, repl, other string) bool {
	changed := false
	for i := 0; i < len(orig); i++ {
		if orig[i] == repl[i] {
			continue
		}
		changed = true
		c := charAt(other, len(orig)-1-i)
		if c == '-' || c != repl[i] {
			return false
		}
	}
	return changed
}

// collides is one direction of the indistinguishability test: f's masks
// overlap other and no excluded operand value of f rules the overlap out.
//
// A single combination that removes the overlap is taken as proof, even
// though other colliding values of the same operands may exist.
func (f *Format) collides(otherMatch string) bool {
	match := f.MatchString()
	if !MasksOverlap(match, otherMatch) {
		return false
	}
	for _, combo := range exclusionCombos(f.Operands) {
		repl := match
		for _, c := range combo {
			repl = c.op.Replace(repl, c.value)
		}
		if !MasksOverlap(repl, otherMatch) || pinned(match, repl, otherMatch) {
			return false
		}
	}
	return true
}

// Indistinguishable reports whether some concrete word could decode as both
// f and other. With checkOther the exclusions of other are considered too,
// and either side's exclusions are enough to separate the pair.
func (f *Format) Indistinguishable(other *Format, checkOther bool) bool {
	if !f.collides(other.MatchString()) {
		return false
	}
	if checkOther {
		return other.collides(f.MatchString())
	}
	return true
}

// Indistinguishable is the symmetric form of Format.Indistinguishable.
func Indistinguishable(a, b *Format) bool {
	return a.Indistinguishable(b, true)
}
