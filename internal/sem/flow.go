package sem

// ContextKind discriminates the two specialized flow contexts from an
// ordinary nested block, per spec §3.4/§4.4.2.
type ContextKind int

const (
	ContextPlain  ContextKind = iota
	ContextJump               // loop/try body: conservative two-pass reanalysis
	ContextBranch             // if/switch arm: improvements valid only within this arm
)

// FlowContext holds the set of nullability improvements in effect within
// one lexical block. Contexts nest; on exit, whatever the context itself
// added is discarded (the parent's improvements are unaffected).
type FlowContext struct {
	Kind         ContextKind
	improvements map[string]bool
	parent       *FlowContext
}

// FlowStack is the stack of active flow contexts threaded through
// statement analysis.
type FlowStack struct {
	top *FlowContext
}

// NewFlowStack returns an empty stack with one root plain context.
func NewFlowStack() *FlowStack {
	return &FlowStack{top: &FlowContext{improvements: map[string]bool{}}}
}

// Push opens a new nested context of the given kind, inheriting the
// current improvement set (a lookup through Improved falls through to
// ancestors; a copy is unnecessary since ancestors are read-only from a
// child's perspective).
func (s *FlowStack) Push(kind ContextKind) {
	s.top = &FlowContext{Kind: kind, improvements: map[string]bool{}, parent: s.top}
}

// Pop closes the current context, discarding everything it added, and
// returns the set of variable names it improved (the caller — an if/try
// driver — uses this to decide what survives into the enclosing context).
func (s *FlowStack) Pop() map[string]bool {
	cur := s.top
	s.top = cur.parent
	return cur.improvements
}

// Improve records that name is now known not-null in the current context.
func (s *FlowStack) Improve(name string) { s.top.improvements[name] = true }

// Unimprove removes name's improvement from the current context and every
// enclosing one — used when an assignment to name invalidates any improvement mentioning
// it (spec §4.4.2: "Assignments to x invalidate all improvements
// mentioning x").
func (s *FlowStack) Unimprove(name string) {
	for c := s.top; c != nil; c = c.parent {
		delete(c.improvements, name)
	}
}

// Improved reports whether name is currently known not-null, searching
// this context and every ancestor.
func (s *FlowStack) Improved(name string) bool {
	for c := s.top; c != nil; c = c.parent {
		if c.improvements[name] {
			return true
		}
	}
	return false
}

// MergeFromSibling adopts every improvement in got into the current
// context — used after an if-statement to keep only the improvements that
// survived every path that falls through: callers intersect the sets from
// each arm themselves and pass the intersection here.
func (s *FlowStack) MergeFromSibling(got map[string]bool) {
	for name := range got {
		s.Improve(name)
	}
}

// IntersectImprovements returns the set of names present (true) in every
// one of sets — the "improvement survives only if every path kept it"
// rule used after if/switch and try/catch.
func IntersectImprovements(sets ...map[string]bool) map[string]bool {
	if len(sets) == 0 {
		return map[string]bool{}
	}
	out := map[string]bool{}
	for name := range sets[0] {
		inAll := true
		for _, s := range sets[1:] {
			if !s[name] {
				inAll = false
				break
			}
		}
		if inAll {
			out[name] = true
		}
	}
	return out
}

// TwoPassLoopImprovements is the filtering step of spec §4.4.2's loop rule:
// given the improvements a first pass over a loop body established
// (firstPassImproved) and the names that pass found assigned anywhere in
// the body (unsetByBody), it returns the improvements that are safe to
// keep — conservatively, any improvement for a name also assigned within
// the same body is dropped. Running the passes over the body is left to
// the caller.
func TwoPassLoopImprovements(firstPassImproved, unsetByBody map[string]bool) map[string]bool {
	safe := map[string]bool{}
	for name := range firstPassImproved {
		if !unsetByBody[name] {
			safe[name] = true
		}
	}
	return safe
}
