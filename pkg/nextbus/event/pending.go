package event

// pendingMatch accumulates slot values for a multi-slot descriptor
// until every slot holds one. Callers hold the owning entry's lock.
type pendingMatch struct {
	values Values
}

// put stores v for slot and reports whether a previous value was replaced.
func (p *pendingMatch) put(slot string, v any) bool {
	if p.values == nil {
		p.values = make(Values)
	}
	_, replaced := p.values[slot]
	p.values[slot] = v
	return replaced
}

// complete reports whether all n slots are filled. Only declared slot
// names are ever stored, so a count comparison suffices.
func (p *pendingMatch) complete(n int) bool {
	return len(p.values) == n
}

// take returns the accumulated values and leaves the match empty.
func (p *pendingMatch) take() Values {
	vals := p.values
	p.values = nil
	return vals
}

// snapshot copies the current values.
func (p *pendingMatch) snapshot() Values {
	out := make(Values, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

func (p *pendingMatch) reset() {
	p.values = nil
}
