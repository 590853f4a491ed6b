package recipients

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/types"
	"github.com/nemanjakrstic/snitch/internal/util"
)

// ErrNotFound is returned by a Directory when no user matches the email.
var ErrNotFound = errors.New("user not found")

// DefaultExcluded is the automated actor that never gets notified.
const DefaultExcluded = "noreply@github.com"

// Directory maps an email address to a messaging-platform identity.
type Directory interface {
	LookupByEmail(ctx context.Context, email string) (*types.Identity, error)
}

// Recipient is an email address that resolved to an identity.
type Recipient struct {
	Email    string
	Identity types.Identity
}

// Resolver turns an event's committer and approver into notifiable recipients.
type Resolver struct {
	directory Directory
	excluded  map[string]struct{}
	logger    *zap.Logger
}

// NewResolver creates a Resolver. Addresses in excluded are compared
// case-insensitively; DefaultExcluded is always included.
func NewResolver(directory Directory, excluded []string, logger *zap.Logger) *Resolver {
	ex := map[string]struct{}{DefaultExcluded: {}}
	for _, e := range excluded {
		if n := util.NormalizeEmail(e); n != "" {
			ex[n] = struct{}{}
		}
	}
	return &Resolver{
		directory: directory,
		excluded:  ex,
		logger:    logger.Named("resolver"),
	}
}

// Recipients returns the deduplicated committer and approver addresses,
// without excluded ones, in that order.
func (r *Resolver) Recipients(e *types.PipelineEvent) []string {
	candidates := []string{
		util.NormalizeEmail(e.Committer.Email),
		util.NormalizeEmail(e.ApproverEmail()),
	}

	var out []string
	for _, email := range util.UniqueStrings(candidates) {
		if r.IsExcluded(email) {
			r.logger.Info("Skipping excluded address", zap.String("email", email))
			continue
		}
		out = append(out, email)
	}
	return out
}

// IsExcluded reports whether email is never notified.
func (r *Resolver) IsExcluded(email string) bool {
	_, ok := r.excluded[util.NormalizeEmail(email)]
	return ok
}

// Resolve looks up every recipient concurrently. Unresolvable addresses are
// logged and skipped; a lookup failure never aborts the batch. The result
// follows the order of Recipients.
func (r *Resolver) Resolve(ctx context.Context, e *types.PipelineEvent) []Recipient {
	emails := r.Recipients(e)
	if len(emails) == 0 {
		return nil
	}

	resolved := make([]*Recipient, len(emails))
	var wg sync.WaitGroup
	for i, email := range emails {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					lookupTotal.WithLabelValues("error").Inc()
					r.logger.Error("Directory lookup panicked",
						zap.String("email", email), zap.Any("recovered", p))
					resolved[i] = nil
				}
			}()
			resolved[i] = r.lookup(ctx, email)
		}()
	}
	wg.Wait()

	out := make([]Recipient, 0, len(emails))
	for _, rc := range resolved {
		if rc != nil {
			out = append(out, *rc)
		}
	}
	return out
}

func (r *Resolver) lookup(ctx context.Context, email string) *Recipient {
	identity, err := r.directory.LookupByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrNotFound) || (err == nil && (identity == nil || identity.ID == "")):
		lookupTotal.WithLabelValues("not_found").Inc()
		r.logger.Warn("No directory user for address", zap.String("email", email))
		return nil
	case err != nil:
		lookupTotal.WithLabelValues("error").Inc()
		r.logger.Warn("Directory lookup failed", zap.String("email", email), zap.Error(err))
		return nil
	}
	lookupTotal.WithLabelValues("found").Inc()
	return &Recipient{Email: email, Identity: *identity}
}
