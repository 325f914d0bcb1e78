package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pqchat/internal/crypto"
	"pqchat/internal/domain"
)

// HTTPDirectory talks to the relay's key directory and presence API.
type HTTPDirectory struct {
	Base string
	HTTP *http.Client
}

// NewHTTPDirectory returns a directory client for the relay at base.
func NewHTTPDirectory(base string) *HTTPDirectory {
	return &HTTPDirectory{
		Base: strings.TrimRight(base, "/"),
		HTTP: &http.Client{Timeout: 15 * time.Second},
	}
}

// Publish uploads keys, base64 encoded.
func (c *HTTPDirectory) Publish(ctx context.Context, keys domain.PublicKeys) error {
	body := domain.KeyUpload{
		User:   keys.UserID,
		KEMPub: crypto.EncodeBase64(keys.KEM),
		SigPub: crypto.EncodeBase64(keys.Signing),
	}
	return c.post(ctx, "/api/keys", body, nil)
}

// FetchKEMKey returns user's published ML-KEM public key.
func (c *HTTPDirectory) FetchKEMKey(ctx context.Context, user domain.UserID) (domain.KEMPublicKey, error) {
	raw, err := c.fetchKey(ctx, user, "kem")
	if err != nil {
		return nil, err
	}
	if len(raw) != crypto.KEMPublicKeySize {
		return nil, fmt.Errorf("kem key of %s is %d bytes: %w", user, len(raw), domain.ErrValidation)
	}
	return raw, nil
}

// FetchSigningKey returns user's published signature key, bounds-checked.
func (c *HTTPDirectory) FetchSigningKey(ctx context.Context, user domain.UserID) (domain.SigningPublicKey, error) {
	raw, err := c.fetchKey(ctx, user, "sig")
	if err != nil {
		return nil, err
	}
	if err := crypto.ValidateSigningKey(raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *HTTPDirectory) fetchKey(ctx context.Context, user domain.UserID, kind string) ([]byte, error) {
	if err := domain.ValidateUserID(user); err != nil {
		return nil, err
	}
	var out domain.KeyLookup
	path := "/api/keys/" + url.PathEscape(string(user)) + "/" + kind
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return crypto.DecodeBase64(out.PK)
}

// Online reports whether peer currently holds a relay connection.
func (c *HTTPDirectory) Online(ctx context.Context, self, peer domain.UserID) (bool, error) {
	if err := domain.ValidateUserID(peer); err != nil {
		return false, err
	}
	var out domain.Presence
	path := "/api/presence/" + url.PathEscape(string(peer)) + "?self=" + url.QueryEscape(string(self))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return false, err
	}
	return out.Online, nil
}

func (c *HTTPDirectory) post(ctx context.Context, path string, in any, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPDirectory) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPDirectory) do(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("relay %s %s: %v: %w", req.Method, req.URL.Path, err, domain.ErrTransport)
	}
	defer resp.Body.Close()
	if err := statusError(req, resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("relay %s %s: decode: %v: %w", req.Method, req.URL.Path, err, domain.ErrTransport)
		}
	}
	return nil
}

func statusError(req *http.Request, resp *http.Response) error {
	if resp.StatusCode/100 == 2 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("relay %s %s: %s %s", req.Method, req.URL.Path, resp.Status, strings.TrimSpace(string(detail)))
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w", msg, domain.ErrValidation)
	default:
		return fmt.Errorf("%s: %w", msg, domain.ErrTransport)
	}
}

var _ domain.Directory = (*HTTPDirectory)(nil)
