package domain

import (
	"fmt"
	"strings"
)

type PersonaID string

// Persona is the only thing that differs between collaborating agents: the
// text fed into prompt composition and the response length.
type Persona struct {
	ID           PersonaID
	Role         string
	Instructions string
	MaxTokens    int
}

func (p Persona) Validate() error {
	if strings.TrimSpace(string(p.ID)) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(p.Role) == "" {
		return fmt.Errorf("persona %q: role is required", p.ID)
	}
	if p.MaxTokens <= 0 {
		return fmt.Errorf("persona %q: max tokens must be positive", p.ID)
	}

	return nil
}

// ValidatePersonas checks each persona and rejects an empty set or duplicate IDs.
func ValidatePersonas(personas []Persona) error {
	if len(personas) == 0 {
		return fmt.Errorf("at least one persona is required")
	}

	seen := make(map[PersonaID]struct{}, len(personas))
	for _, persona := range personas {
		if err := persona.Validate(); err != nil {
			return err
		}
		if _, ok := seen[persona.ID]; ok {
			return fmt.Errorf("duplicate persona %q", persona.ID)
		}
		seen[persona.ID] = struct{}{}
	}

	return nil
}
