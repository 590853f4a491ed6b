package recipients

import (
	"context"

	"github.com/nemanjakrstic/snitch/internal/types"
	"github.com/nemanjakrstic/snitch/internal/util"
)

// EmailDirectory resolves every address to an identity whose ID is the
// normalized address itself. It backs channels that address people by email
// (webhook, log) when no messaging directory is configured.
type EmailDirectory struct{}

// LookupByEmail implements Directory.
func (EmailDirectory) LookupByEmail(_ context.Context, email string) (*types.Identity, error) {
	n := util.NormalizeEmail(email)
	if n == "" {
		return nil, ErrNotFound
	}
	return &types.Identity{ID: n, Name: n}, nil
}
