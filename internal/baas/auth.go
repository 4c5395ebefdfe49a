package baas

import (
	"context"
	"time"
)

// User is the authenticated account as the backend reports it.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session holds the tokens returned by a successful sign-in or refresh.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"-"`
	User         User      `json:"user"`
}

// tokenResponse is the raw auth endpoint payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         User   `json:"user"`
}

func (r tokenResponse) session(now time.Time) *Session {
	return &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(r.ExpiresIn) * time.Second),
		User:         r.User,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges email/password credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	err := c.do(ctx, "POST", "/auth/v1/token?grant_type=password", "",
		credentials{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(time.Now()), nil
}

// SignUp registers a new account and returns its initial session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	err := c.do(ctx, "POST", "/auth/v1/signup", "",
		credentials{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(time.Now()), nil
}

// Refresh exchanges a refresh token for a new session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var resp tokenResponse
	err := c.do(ctx, "POST", "/auth/v1/token?grant_type=refresh_token", "",
		map[string]string{"refresh_token": refreshToken}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.session(time.Now()), nil
}

// GetUser fetches the account behind accessToken. Used as the liveness
// check for a cached session.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, "GET", "/auth/v1/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, "POST", "/auth/v1/logout", accessToken, nil, nil)
}
