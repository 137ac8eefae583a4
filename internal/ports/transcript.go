package ports

import (
	"context"

	"github.com/bnema/agent-council/internal/domain"
)

type TranscriptWriter interface {
	Write(ctx context.Context, transcript domain.Transcript) error
}

type TranscriptReader interface {
	Read(ctx context.Context) (domain.Transcript, error)
}
