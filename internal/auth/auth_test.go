package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/store/memory"
)

func newTestService(t *testing.T, opts Options) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	opts.BcryptCost = bcrypt.MinCost
	return NewService(st, opts), st
}

func TestSignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, " Ana@Example.com ", "secreto", "Ana")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "ana@example.com", sess.User.Email)
	assert.NotEmpty(t, sess.User.PasswordHash)

	_, err = svc.SignUp(ctx, "ana@example.com", "otro-secreto", "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.SignIn(ctx, "ana@example.com", "incorrecta")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.SignIn(ctx, "nadie@example.com", "secreto")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	again, err := svc.SignIn(ctx, "ANA@example.com", "secreto")
	require.NoError(t, err)
	assert.NotEqual(t, sess.Token, again.Token)
	assert.Equal(t, 2, svc.ActiveSessions())
}

func TestSignUpValidation(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.SignUp(context.Background(), "not-an-email", "secreto", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = svc.SignUp(context.Background(), "ana@example.com", "123", "")
	assert.ErrorIs(t, err, ErrWeakPassword)
}

func TestResolveAndSignOut(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "ana@example.com", "secreto", "Ana")
	require.NoError(t, err)

	got, err := svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.User.Profile.Name)

	_, err = svc.UpdateProfile(ctx, got.UserID, core.Profile{Name: "Ana María"})
	require.NoError(t, err)
	got, err = svc.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "Ana María", got.User.Profile.Name, "profile changes are visible on the next resolve")

	svc.SignOut(ctx, sess.Token)
	svc.SignOut(ctx, sess.Token)
	_, err = svc.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, core.ErrUserNotResolved)
	_, err = svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, core.ErrUserNotResolved)
}

func TestSessionExpiry(t *testing.T) {
	svc, _ := newTestService(t, Options{SessionTTL: 10 * time.Millisecond})
	sess, err := svc.SignUp(context.Background(), "ana@example.com", "secreto", "")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = svc.Resolve(context.Background(), sess.Token)
	assert.ErrorIs(t, err, core.ErrUserNotResolved)
}

func TestSubscribe(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	events, cancel := svc.Subscribe(8)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, "ana@example.com", "secreto", "")
	require.NoError(t, err)
	_, err = svc.UpdateProfile(ctx, sess.UserID, core.Profile{Name: "Ana"})
	require.NoError(t, err)
	svc.SignOut(ctx, sess.Token)

	var kinds []EventKind
	for i := 0; i < 3; i++ {
		e := <-events
		assert.Equal(t, sess.UserID, e.UserID)
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []EventKind{EventSignedIn, EventUserUpdated, EventSignedOut}, kinds)

	cancel()
	cancel()
	_, open := <-events
	assert.False(t, open)
}

func TestSessionEvictedWhenFull(t *testing.T) {
	svc, _ := newTestService(t, Options{MaxSessions: 1})
	ctx := context.Background()

	first, err := svc.SignUp(ctx, "ana@example.com", "secreto", "")
	require.NoError(t, err)
	events, cancel := svc.Subscribe(8)
	defer cancel()

	second, err := svc.SignUp(ctx, "luz@example.com", "secreto", "")
	require.NoError(t, err)

	_, err = svc.Resolve(ctx, first.Token)
	assert.ErrorIs(t, err, core.ErrUserNotResolved)
	_, err = svc.Resolve(ctx, second.Token)
	assert.NoError(t, err)

	e := <-events
	assert.Equal(t, EventSignedOut, e.Kind)
	assert.Equal(t, first.UserID, e.UserID)
	assert.Equal(t, 1, svc.ActiveSessions())
}

func TestUpdateProfileRequiresUser(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.UpdateProfile(context.Background(), "", core.Profile{})
	assert.ErrorIs(t, err, core.ErrUserNotResolved)
	_, err = svc.UpdateProfile(context.Background(), "missing", core.Profile{})
	assert.ErrorIs(t, err, core.ErrWrite)
}

func TestMiddleware(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	sess, err := svc.SignUp(context.Background(), "ana@example.com", "secreto", "")
	require.NoError(t, err)

	var gotID string
	var gotErr error
	h := Middleware(svc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotErr = UserID(r.Context())
	}))

	tests := []struct {
		name    string
		prepare func(r *http.Request)
		wantErr bool
	}{
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+sess.Token) }, false},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: sess.Token}) }, false},
		{"no token", func(r *http.Request) {}, true},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, gotErr = "", nil
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.prepare(r)
			h.ServeHTTP(httptest.NewRecorder(), r)
			if tt.wantErr {
				assert.ErrorIs(t, gotErr, core.ErrUserNotResolved)
				return
			}
			require.NoError(t, gotErr)
			assert.Equal(t, sess.UserID, gotID)
		})
	}
}

func TestOAuthFlow(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":3600}`))
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"email":"Luz@Example.com","name":"Luz","picture":"https://img/luz.png"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer provider.Close()

	svc, st := newTestService(t, Options{OAuth: &OAuthConfig{
		Provider:     "google",
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      provider.URL + "/auth",
		TokenURL:     provider.URL + "/token",
		UserInfoURL:  provider.URL + "/userinfo",
		RedirectURL:  "http://localhost/api/auth/oauth/callback",
		Scopes:       []string{"email"},
	}})
	ctx := context.Background()

	redirect, err := svc.OAuthStart()
	require.NoError(t, err)
	u, err := url.Parse(redirect)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	assert.Equal(t, "client", u.Query().Get("client_id"))

	_, err = svc.OAuthComplete(ctx, "forged", "good-code")
	assert.ErrorIs(t, err, ErrOAuthState)

	sess, err := svc.OAuthComplete(ctx, state, "good-code")
	require.NoError(t, err)
	assert.Equal(t, "luz@example.com", sess.User.Email)
	assert.Equal(t, "google", sess.User.Provider)
	assert.Equal(t, "https://img/luz.png", sess.User.Profile.AvatarURL)

	_, err = svc.OAuthComplete(ctx, state, "good-code")
	assert.ErrorIs(t, err, ErrOAuthState, "states are single use")

	stored, err := st.GetUserByEmail(ctx, "luz@example.com")
	require.NoError(t, err)
	assert.Empty(t, stored.PasswordHash)
	_, err = svc.SignIn(ctx, "luz@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "oauth accounts have no password")
}

func TestOAuthDisabled(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.OAuthStart()
	assert.ErrorIs(t, err, ErrOAuthDisabled)
	_, err = svc.OAuthComplete(context.Background(), "s", "c")
	assert.ErrorIs(t, err, ErrOAuthDisabled)
}
