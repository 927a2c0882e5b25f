// Package ids issues the globally-unique identifiers used for entity rows and
// session tokens.
package ids

import "github.com/google/uuid"

// Provider abstracts identifier generation so tests can substitute
// deterministic sequences.
type Provider interface {
	NewID() (string, error)
}

type uuidProvider struct{}

// NewUUIDProvider constructs a Provider that issues random UUIDv4 identifiers.
func NewUUIDProvider() Provider {
	return &uuidProvider{}
}

func (p *uuidProvider) NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return value.String(), nil
}
