package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// InternalTokenHeader carries the shared token expected by auth-service.
const InternalTokenHeader = "X-Internal-Token"

var (
	// ErrEmailTaken is returned when auth-service already has the email.
	ErrEmailTaken = errors.New("auth: email already registered")
	// ErrRejected is returned when auth-service refuses the account input.
	ErrRejected = errors.New("auth: account rejected")
)

type apiError struct {
	Error string `json:"error"`
}

// AuthClient provisions developer logins through auth-service.
type AuthClient struct {
	http *resty.Client
}

// NewAuthClient builds a client for auth-service at baseURL.
func NewAuthClient(baseURL, internalToken string, timeout time.Duration) *AuthClient {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if internalToken != "" {
		client.SetHeader(InternalTokenHeader, internalToken)
	}
	return &AuthClient{http: client}
}

// CreateAccount creates a developer account and returns its id.
func (c *AuthClient) CreateAccount(ctx context.Context, email, password string) (string, error) {
	var (
		created struct {
			ID string `json:"id"`
		}
		failure apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&created).
		SetError(&failure).
		Post("/internal/accounts")
	if err != nil {
		return "", fmt.Errorf("auth: create account: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusConflict:
		return "", ErrEmailTaken
	case resp.StatusCode() == http.StatusBadRequest:
		return "", fmt.Errorf("%w: %s", ErrRejected, failure.Error)
	case resp.IsError():
		return "", fmt.Errorf("auth: create account: status %d", resp.StatusCode())
	}
	if created.ID == "" {
		return "", errors.New("auth: create account: empty id")
	}
	return created.ID, nil
}

// DeleteAccount removes a developer account. A missing account is not an error.
func (c *AuthClient) DeleteAccount(ctx context.Context, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		Delete("/internal/accounts/{id}")
	if err != nil {
		return fmt.Errorf("auth: delete account: %w", err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("auth: delete account: status %d", resp.StatusCode())
	}
	return nil
}
