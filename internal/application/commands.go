package application

import "github.com/bnema/agent-council/internal/domain"

type RunSessionCommand struct {
	Profile domain.Profile
	// SessionID is generated when empty.
	SessionID string
}

type SetCredentialCommand struct {
	Provider domain.Provider
	Secret   string
}

type RemoveCredentialCommand struct {
	Provider domain.Provider
}
