package augment

import "github.com/pkg/errors"

var (
	// ErrValidation is returned (wrapped) for invalid requests: unknown actions, out of range parameters.
	// Nothing is mutated when it is returned.
	ErrValidation = errors.New("invalid augmentation request")

	// ErrInsufficientTokens is returned (wrapped) when a minimum number of augmented tokens is required
	// but no token is eligible.
	ErrInsufficientTokens = errors.New("insufficient eligible tokens")
)
