// Package identity talks to the hosted identity provider. The provider owns
// credentials and token issuance; this client only validates tokens and
// creates accounts on behalf of the signup endpoint.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/example/worldpeas/pkg/config"
	"github.com/example/worldpeas/pkg/models"
	"go.uber.org/zap"
)

// ErrInvalidToken is returned when the provider rejects the bearer token.
var ErrInvalidToken = errors.New("identity: invalid token")

// ErrEmailExists is returned when signup hits an already registered email.
var ErrEmailExists = errors.New("identity: email already registered")

type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.IdentityConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type userPayload struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Metadata struct {
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user_metadata"`
}

func (u *userPayload) identity() *models.Identity {
	fullName := u.Metadata.FullName
	if fullName == "" {
		// Fall back to the mailbox name the way the storefront always has.
		if at := strings.Index(u.Email, "@"); at > 0 {
			fullName = u.Email[:at]
		} else {
			fullName = "User"
		}
	}
	return &models.Identity{
		FullName:  fullName,
		Email:     u.Email,
		AvatarURL: u.Metadata.AvatarURL,
	}
}

// GetUser validates token against the provider and returns the projected
// identity. An unauthorized response maps to ErrInvalidToken.
func (c *Client) GetUser(ctx context.Context, token string) (*models.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	return payload.identity(), nil
}

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Metadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
	// No mail server is configured, so accounts are confirmed on creation.
	EmailConfirm bool `json:"email_confirm"`
}

// CreateUser provisions an account through the provider's admin API using the
// service key. Used only by the server-side signup endpoint.
func (c *Client) CreateUser(ctx context.Context, email, password, fullName string) (*models.Identity, error) {
	body := createUserRequest{Email: email, Password: password, EmailConfirm: true}
	body.Metadata.FullName = fullName

	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/admin/users", bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"msg"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			if apiErr.Code == "email_exists" || strings.Contains(apiErr.Message, "already registered") {
				return nil, ErrEmailExists
			}
			if apiErr.Message != "" {
				return nil, fmt.Errorf("identity provider: %s", apiErr.Message)
			}
		}
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var payload userPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}
	c.logger.Info("User created", zap.String("email", email))
	return payload.identity(), nil
}
