package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/pokevault/internal/model"
)

// RemoteVerifier asks the identity provider who a token belongs to.
// It is used when the signing secret is not available to this service.
type RemoteVerifier struct {
	BaseURL string
	AnonKey string
	HTTP    *http.Client
}

// NewRemoteVerifier returns a verifier for the provider at baseURL.
func NewRemoteVerifier(baseURL, anonKey string, timeout time.Duration) *RemoteVerifier {
	return &RemoteVerifier{
		BaseURL: strings.TrimRight(baseURL, "/"),
		AnonKey: anonKey,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type remoteUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verify implements Verifier.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (model.Principal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return model.Principal{}, fmt.Errorf("building user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.AnonKey)

	resp, err := v.HTTP.Do(req)
	if err != nil {
		return model.Principal{}, fmt.Errorf("requesting user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return model.Principal{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return model.Principal{}, fmt.Errorf("identity provider returned %s", resp.Status)
	}

	var user remoteUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return model.Principal{}, fmt.Errorf("decoding user: %w", err)
	}
	if _, err := uuid.Parse(user.ID); err != nil {
		return model.Principal{}, fmt.Errorf("%w: user id is not a UUID", ErrInvalidToken)
	}

	return model.Principal{UserID: user.ID, Email: user.Email}, nil
}
