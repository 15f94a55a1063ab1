package auth

import (
	"context"
	"strings"

	"github.com/erazemk/pokevault/internal/model"
)

// Verifier turns a bearer token into an identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (model.Principal, error)
}

// Authenticator verifies tokens and decides what the caller may do.
type Authenticator struct {
	Verifier Verifier
	readOnly map[string]bool
}

// NewAuthenticator returns an Authenticator. Identities listed in readOnly,
// by user id or email, may read but never write.
func NewAuthenticator(v Verifier, readOnly []string) *Authenticator {
	a := &Authenticator{Verifier: v, readOnly: make(map[string]bool, len(readOnly))}
	for _, id := range readOnly {
		if id = strings.ToLower(strings.TrimSpace(id)); id != "" {
			a.readOnly[id] = true
		}
	}
	return a
}

// Authenticate verifies token and resolves the caller's write capability.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (model.Principal, error) {
	p, err := a.Verifier.Verify(ctx, token)
	if err != nil {
		return model.Principal{}, err
	}
	p.CanWrite = !a.readOnly[strings.ToLower(p.UserID)] &&
		(p.Email == "" || !a.readOnly[strings.ToLower(p.Email)])
	return p, nil
}
