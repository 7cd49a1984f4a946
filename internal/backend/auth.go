package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Auth is the gateway for /auth.
type Auth struct {
	c *Client
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for a token, stores it in the session and re-arms the
// session-expired notification.
func (a Auth) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return &Error{
			Status:      http.StatusBadRequest,
			Code:        CodeValidation,
			Message:     "Email and password are required",
			FieldErrors: missingFields(map[string]string{"email": email, "password": password}),
			Method:      http.MethodPost,
			Path:        "/auth/login",
		}
	}
	var resp loginResponse
	err := a.c.doJSON(ctx, call{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   map[string]string{"email": email, "password": password},
	}, &resp)
	if err != nil {
		return err
	}
	token := resp.Token
	if token == "" {
		token = resp.AccessToken
	}
	if token == "" {
		return &Error{
			Status:  http.StatusOK,
			Code:    CodeDecode,
			Message: "Login response did not contain a token",
			Method:  http.MethodPost,
			Path:    "/auth/login",
		}
	}
	if err := a.c.session.SetToken(token); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	a.c.rearm()
	return nil
}

// Logout forgets the token locally.
func (a Auth) Logout() error {
	_, err := a.c.session.Clear()
	return err
}

func missingFields(values map[string]string) map[string]string {
	missing := map[string]string{}
	for name, v := range values {
		if strings.TrimSpace(v) == "" {
			missing[name] = "Required"
		}
	}
	return missing
}
