package domain

// Identity is a caller resolved by the identity provider.
type Identity struct {
	// SubjectID is the provider's unique, stable user identifier.
	SubjectID string

	// Email is the user's email address, possibly empty.
	Email string
}
