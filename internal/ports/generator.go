package ports

import (
	"context"

	"github.com/bnema/agent-council/internal/domain"
)

type GenerationRequest struct {
	Persona   domain.PersonaID
	System    string
	Model     string
	MaxTokens int
	Prompt    string
}

type Generation struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

func (g Generation) Usage() domain.Usage {
	return domain.Usage{InputTokens: g.InputTokens, OutputTokens: g.OutputTokens}
}

// Generator is the remote generation service. Implementations must honour ctx
// cancellation for in-flight requests.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (Generation, error)
}
