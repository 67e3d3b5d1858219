package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/store"
)

const stateTTL = 10 * time.Minute

var (
	ErrOAuthDisabled = errors.New("oauth sign-in not configured")
	ErrOAuthState    = errors.New("invalid oauth state")
)

type OAuthConfig struct {
	Provider     string
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	Scopes       []string
}

type oauthProvider struct {
	name        string
	cfg         *oauth2.Config
	userInfoURL string
	states      *cache.LRUCache[struct{}]
}

func newOAuthProvider(c OAuthConfig) *oauthProvider {
	name := c.Provider
	if name == "" {
		name = "oauth"
	}
	return &oauthProvider{
		name: name,
		cfg: &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  c.AuthURL,
				TokenURL: c.TokenURL,
			},
			RedirectURL: c.RedirectURL,
			Scopes:      c.Scopes,
		},
		userInfoURL: c.UserInfoURL,
		states:      cache.NewLRUCache[struct{}](defaultMaxSessions, stateTTL),
	}
}

type userInfo struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// OAuthStart returns the provider URL to redirect the browser to.
func (s *Service) OAuthStart() (string, error) {
	if s.oauth == nil {
		return "", ErrOAuthDisabled
	}
	state := uuid.NewString()
	s.oauth.states.Set(state, struct{}{})
	return s.oauth.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// OAuthComplete exchanges code, reads the provider's userinfo and signs the
// user in, creating the account on first use.
func (s *Service) OAuthComplete(ctx context.Context, state, code string) (Session, error) {
	if s.oauth == nil {
		return Session{}, ErrOAuthDisabled
	}
	if _, ok := s.oauth.states.Get(state); !ok || code == "" {
		return Session{}, ErrOAuthState
	}
	s.oauth.states.Delete(state)

	tok, err := s.oauth.cfg.Exchange(ctx, code)
	if err != nil {
		return Session{}, fmt.Errorf("exchange code: %w", err)
	}

	info, err := s.oauth.fetchUserInfo(ctx, s.oauth.cfg.Client(ctx, tok))
	if err != nil {
		return Session{}, err
	}

	u, err := s.users.GetUserByEmail(ctx, info.Email)
	if errors.Is(err, store.ErrNotFound) {
		u, err = s.users.CreateUser(ctx, core.User{
			Email:    info.Email,
			Provider: s.oauth.name,
			Profile:  core.Profile{Name: info.Name, AvatarURL: info.Picture},
		})
		if err == nil {
			s.logger.InfoContext(ctx, "User signed up with OAuth", "user_id", u.ID, "provider", s.oauth.name)
		}
	}
	if err != nil {
		return Session{}, fmt.Errorf("%w: resolve oauth user: %w", core.ErrFetch, err)
	}
	return s.issue(u), nil
}

func (p *oauthProvider) fetchUserInfo(ctx context.Context, client *http.Client) (userInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return userInfo{}, fmt.Errorf("build userinfo request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return userInfo{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return userInfo{}, fmt.Errorf("userinfo status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return userInfo{}, fmt.Errorf("decode userinfo: %w", err)
	}
	info.Email = core.NormalizeEmail(info.Email)
	if info.Email == "" {
		return userInfo{}, fmt.Errorf("userinfo without email: %w", ErrInvalidEmail)
	}
	return info, nil
}
