package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// User is the identity established by a verified login token.
type User struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// TokenVerifier checks a Google ID token and returns the identity it
// asserts.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (User, error)
}

// GoogleVerifier validates ID tokens against Google's tokeninfo
// endpoint and checks the audience matches the configured client ID.
type GoogleVerifier struct {
	clientID   string
	endpoint   string
	httpClient *http.Client
}

const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo"

func NewGoogleVerifier(clientID, endpoint string, httpClient *http.Client) (*GoogleVerifier, error) {
	if clientID == "" {
		return nil, fmt.Errorf("google client id is required")
	}
	if endpoint == "" {
		endpoint = googleTokenInfoURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleVerifier{clientID: clientID, endpoint: endpoint, httpClient: httpClient}, nil
}

func (g *GoogleVerifier) VerifyIDToken(ctx context.Context, idToken string) (User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.endpoint+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return User{}, err
	}
	res, err := g.httpClient.Do(req)
	if err != nil {
		return User{}, err
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if res.StatusCode != http.StatusOK {
		return User{}, fmt.Errorf("token rejected: status code %d", res.StatusCode)
	}

	var claims struct {
		Sub      string `json:"sub"`
		Aud      string `json:"aud"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		ExpDelta string `json:"expires_in"`
	}
	if err := json.Unmarshal(b, &claims); err != nil {
		return User{}, fmt.Errorf("parse tokeninfo: %w", err)
	}
	if claims.Aud != g.clientID {
		return User{}, fmt.Errorf("token audience mismatch")
	}
	if remaining, err := strconv.Atoi(claims.ExpDelta); err == nil && remaining <= 0 {
		return User{}, fmt.Errorf("token expired")
	}
	if claims.Sub == "" {
		return User{}, fmt.Errorf("token missing subject")
	}
	return User{UID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}

var _ TokenVerifier = (*GoogleVerifier)(nil)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	blob, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := decodeJSONBytes(blob, &req); err != nil || req.IDToken == "" {
		writeError(w, http.StatusBadRequest, "id_token is required")
		return
	}

	user, err := s.verifier.VerifyIDToken(r.Context(), req.IDToken)
	if err != nil {
		log.Printf("httpapi login_rejected err=%q", err.Error())
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	// Rotate the session token on privilege change.
	if err := s.sessions.RenewToken(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	s.sessions.Put(r.Context(), sessionKeyUID, user.UID)
	s.sessions.Put(r.Context(), sessionKeyEmail, user.Email)
	s.sessions.Put(r.Context(), sessionKeyName, user.Name)

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Destroy(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "session error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
