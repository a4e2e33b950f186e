package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/AbinJoseph007/new-member-api/internal/metrics"
	"github.com/AbinJoseph007/new-member-api/internal/observability/logger"
)

const defaultTimeout = 10 * time.Second

// Client es la implementación HTTP de API.
//
// Wire contract:
//
//	GET   /profiles?email=...   → lista de perfiles que matchean
//	POST  /profiles             → {id}   (create, incluye password)
//	PATCH /profiles/{id}        → {id}   (update de customFields)
//
// Autenticación: bearer JWT HS256 de corta vida firmado con el secret
// compartido del provider.
type Client struct {
	baseURL string
	keyID   string
	secret  []byte
	http    *http.Client
}

// Config del cliente HTTP.
type Config struct {
	BaseURL string
	KeyID   string
	Secret  string
	Timeout time.Duration
}

// NewClient crea el cliente con timeout acotado.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: cfg.BaseURL,
		keyID:   cfg.KeyID,
		secret:  []byte(cfg.Secret),
		http:    &http.Client{Timeout: timeout},
	}
}

// bearer firma un token de servicio de corta vida para una llamada.
func (c *Client) bearer() (string, error) {
	now := time.Now()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		"iss": "new-member-api",
		"aud": "identity-provider",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	})
	if c.keyID != "" {
		tok.Header["kid"] = c.keyID
	}
	return tok.SignedString(c.secret)
}

func (c *Client) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("provider: marshal: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("provider: build request: %w", err)
	}
	token, err := c.bearer()
	if err != nil {
		return 0, nil, fmt.Errorf("provider: sign token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	return resp.StatusCode, b, nil
}

// profilePayload es el cuerpo del POST/PATCH.
type profilePayload struct {
	Email        string `json:"email,omitempty"`
	Password     string `json:"password,omitempty"`
	CustomFields any    `json:"customFields"`
}

type idResponse struct {
	ID string `json:"id"`
}

// observe registra la llamada en el counter de provider, si hay metrics.
func observe(op string, err error) {
	if metrics.ProviderRequestsTotal == nil {
		return
	}
	result := "ok"
	switch {
	case errors.Is(err, ErrConflict):
		result = "conflict"
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(op, result).Inc()
}

func (c *Client) FindByEmail(ctx context.Context, email string) (_ *RemoteProfile, err error) {
	defer func() { observe("lookup", err) }()
	status, body, err := c.do(ctx, http.MethodGet,
		"/profiles?email="+url.QueryEscape(email), nil)
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ErrNotFound
	case status >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, status)
	case status != http.StatusOK:
		return nil, fmt.Errorf("provider: lookup status %d", status)
	}

	var list []RemoteProfile
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("provider: decode lookup: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return &list[0], nil
}

func (c *Client) create(ctx context.Context, p Profile) (_ string, err error) {
	defer func() { observe("create", err) }()
	status, body, err := c.do(ctx, http.MethodPost, "/profiles", profilePayload{
		Email:        p.Email,
		Password:     p.Password,
		CustomFields: p.Custom,
	})
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusConflict:
		return "", ErrConflict
	case status >= 500:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, status)
	case status != http.StatusOK && status != http.StatusCreated:
		return "", fmt.Errorf("provider: create status %d", status)
	}
	var out idResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("provider: decode create: %w", err)
	}
	return out.ID, nil
}

func (c *Client) update(ctx context.Context, id string, fields any) (_ string, err error) {
	defer func() { observe("update", err) }()
	status, body, err := c.do(ctx, http.MethodPatch, "/profiles/"+url.PathEscape(id),
		profilePayload{CustomFields: fields})
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusNotFound:
		return "", ErrNotFound
	case status >= 500:
		return "", fmt.Errorf("%w: status %d", ErrUnavailable, status)
	case status != http.StatusOK:
		return "", fmt.Errorf("provider: update status %d", status)
	}
	var out idResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("provider: decode update: %w", err)
	}
	if out.ID == "" {
		out.ID = id
	}
	return out.ID, nil
}

func (c *Client) CreateOrUpdate(ctx context.Context, p Profile) (string, bool, error) {
	log := logger.From(ctx).With(logger.Component("provider"), logger.Op("CreateOrUpdate"))

	existing, err := c.FindByEmail(ctx, p.Email)
	switch {
	case err == nil:
		// Update path: nunca re-mandamos la password.
		id, uerr := c.update(ctx, existing.ID, p.Custom)
		if uerr != nil {
			return "", false, uerr
		}
		return id, false, nil
	case errors.Is(err, ErrNotFound):
		// sigue al create path
	default:
		return "", false, err
	}

	id, err := c.create(ctx, p)
	if err == nil {
		return id, true, nil
	}
	if !errors.Is(err, ErrConflict) {
		return "", false, err
	}

	// Ventana de carrera del create: otro caller ganó. Re-lookup + update.
	log.Debug("create conflict, falling back to update", logger.Email(p.Email))
	existing, err = c.FindByEmail(ctx, p.Email)
	if err != nil {
		return "", false, err
	}
	id, err = c.update(ctx, existing.ID, p.Custom)
	if err != nil {
		return "", false, err
	}
	return id, false, nil
}

func (c *Client) UpdateCustomFields(ctx context.Context, id string, fields map[string]any) error {
	_, err := c.update(ctx, id, fields)
	return err
}
