package domain

import "fmt"

// Answer is a resource record in the answer section. Data holds wire-encoded RDATA.
type Answer struct {
	Name  string
	Type  RRType
	Class RRClass
	TTL   uint32
	Data  []byte
}

// Response is a DNS reply built for exactly one Query.
type Response struct {
	ID        uint16
	Flags     uint16
	RCode     RCode
	Questions []Question
	Answers   []Answer
}

// NewResponse mirrors the query into an empty NOERROR response: same ID,
// QR and AA set, opcode and RD copied, every question echoed.
func NewResponse(q Query) Response {
	flags := FlagQR | FlagAA | (q.Flags & (FlagOpcode | FlagRD))
	questions := make([]Question, len(q.Questions))
	copy(questions, q.Questions)
	return Response{
		ID:        q.ID,
		Flags:     flags,
		RCode:     RCodeNoError,
		Questions: questions,
	}
}

// Validate checks whether the Response fields are structurally valid.
func (r Response) Validate() error {
	if !r.RCode.IsValid() {
		return fmt.Errorf("invalid RCode: %d", r.RCode)
	}
	for i, a := range r.Answers {
		if a.Name == "" {
			return fmt.Errorf("invalid answer record at index %d: empty name", i)
		}
		if len(a.Data) > 0xFFFF {
			return fmt.Errorf("invalid answer record at index %d: rdata too large (%d bytes)", i, len(a.Data))
		}
	}
	return nil
}

// HasAnswers returns true if the response contains answer records.
func (r Response) HasAnswers() bool {
	return len(r.Answers) > 0
}
