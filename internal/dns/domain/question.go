package domain

import "fmt"

// Question is one entry of the question section of a DNS message.
// Name is kept exactly as it arrived, fully qualified with its trailing dot.
type Question struct {
	Name  string
	Type  RRType
	Class RRClass
}

// NewQuestion constructs a Question and validates its fields.
func NewQuestion(name string, rrtype RRType, class RRClass) (Question, error) {
	q := Question{
		Name:  name,
		Type:  rrtype,
		Class: class,
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// Validate checks that the Question can be put on the wire.
func (q Question) Validate() error {
	if q.Name == "" {
		return fmt.Errorf("question name must not be empty")
	}
	return nil
}

// IsAddressQuery reports whether the question asks for an IPv4 address in class IN,
// the only kind of question the resolver answers.
func (q Question) IsAddressQuery() bool {
	return q.Type == RRTypeA && q.Class == RRClassIN
}

// String renders the question the way dig prints it.
func (q Question) String() string {
	return fmt.Sprintf("%s %s %s", q.Name, q.Class, q.Type)
}
