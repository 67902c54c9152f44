package domain

// Query is a decoded DNS request. A message may carry several questions;
// only the first one is resolved but all of them are echoed back.
type Query struct {
	ID        uint16
	Flags     uint16
	Questions []Question
}

// NewQuery constructs a standard query with RD set.
func NewQuery(id uint16, questions ...Question) Query {
	return Query{
		ID:        id,
		Flags:     FlagRD,
		Questions: questions,
	}
}

// First returns the question the resolver acts on.
func (q Query) First() (Question, bool) {
	if len(q.Questions) == 0 {
		return Question{}, false
	}
	return q.Questions[0], true
}

// Opcode returns the 4-bit opcode from the header flags.
func (q Query) Opcode() uint8 {
	return Opcode(q.Flags)
}

// RecursionDesired reports whether the RD bit was set by the client.
func (q Query) RecursionDesired() bool {
	return q.Flags&FlagRD != 0
}
