package ports

import (
	"context"

	"github.com/bnema/agent-council/internal/domain"
)

type ProfileRepository interface {
	Load(ctx context.Context) (domain.Profile, error)
	Save(ctx context.Context, profile domain.Profile) error
	Path() string
}
