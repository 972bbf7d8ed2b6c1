package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeTokenVerifier implements domain.TokenVerifier for tests.
type fakeTokenVerifier struct {
	userID   string
	err      error
	gotToken string
}

func (f *fakeTokenVerifier) Verify(token string) (string, error) {
	f.gotToken = token
	if f.err != nil {
		return "", f.err
	}
	return f.userID, nil
}

func (f *fakeTokenVerifier) VerifyRefresh(_ string) (string, error) {
	return "", errors.New("not a refresh verifier")
}

type fakeUserLoader struct {
	users map[string]*domain.User
	err   error
}

func (f *fakeUserLoader) GetByID(_ context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func TestAuthenticate(t *testing.T) {
	users := &fakeUserLoader{users: map[string]*domain.User{
		"user-123": {ID: "user-123", Username: "alice", IsActive: true},
		"inactive": {ID: "inactive", Username: "bob"},
	}}

	tests := []struct {
		name         string
		authHeader   string
		verifier     domain.TokenVerifier
		loader       UserLoader
		wantStatus   int
		wantBodyCode string
		nextCalled   bool
		wantUserID   string
	}{
		{
			name:       "no header passes through anonymously",
			verifier:   &fakeTokenVerifier{userID: "user-123"},
			loader:     users,
			wantStatus: http.StatusOK,
			nextCalled: true,
		},
		{
			name:       "valid token loads the user",
			authHeader: "Bearer valid-token",
			verifier:   &fakeTokenVerifier{userID: "user-123"},
			loader:     users,
			wantStatus: http.StatusOK,
			nextCalled: true,
			wantUserID: "user-123",
		},
		{
			name:       "bare token without Bearer prefix",
			authHeader: "valid-token",
			verifier:   &fakeTokenVerifier{userID: "user-123"},
			loader:     users,
			wantStatus: http.StatusOK,
			nextCalled: true,
			wantUserID: "user-123",
		},
		{
			name:         "other authorization scheme",
			authHeader:   "Basic abc",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			loader:       users,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "empty token after Bearer",
			authHeader:   "Bearer ",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			loader:       users,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "verifier returns error",
			authHeader:   "Bearer bad-token",
			verifier:     &fakeTokenVerifier{err: errors.New("token is expired")},
			loader:       users,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "user no longer exists",
			authHeader:   "Bearer valid-token",
			verifier:     &fakeTokenVerifier{userID: "ghost"},
			loader:       users,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "inactive user rejected",
			authHeader:   "Bearer valid-token",
			verifier:     &fakeTokenVerifier{userID: "inactive"},
			loader:       users,
			wantStatus:   http.StatusUnauthorized,
			wantBodyCode: helpers.ErrCodeUnauthorized,
		},
		{
			name:         "store failure is internal error",
			authHeader:   "Bearer valid-token",
			verifier:     &fakeTokenVerifier{userID: "user-123"},
			loader:       &fakeUserLoader{err: errors.New("connection refused")},
			wantStatus:   http.StatusInternalServerError,
			wantBodyCode: helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var nextCalled bool
			var gotUser *domain.User
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				gotUser = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})
			handler := Authenticate(tt.verifier, tt.loader, testLogger)(next)
			req := httptest.NewRequest(http.MethodGet, "/events", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.nextCalled, nextCalled)
			if tt.wantUserID != "" {
				require.NotNil(t, gotUser)
				assert.Equal(t, tt.wantUserID, gotUser.ID)
				assert.Equal(t, "valid-token", tt.verifier.(*fakeTokenVerifier).gotToken)
			} else if tt.nextCalled {
				assert.Nil(t, gotUser)
			}
			if tt.wantBodyCode != "" {
				var body helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
				require.NotNil(t, body.Error)
				assert.Equal(t, tt.wantBodyCode, body.Error.Code)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	next := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }

	t.Run("anonymous request is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		RequireAuth(next)(rr, httptest.NewRequest(http.MethodGet, "/rsvps/my-rsvps", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("authenticated request reaches the handler", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/rsvps/my-rsvps", nil)
		req = req.WithContext(SetUser(req.Context(), &domain.User{ID: "u1", IsActive: true}))
		rr := httptest.NewRecorder()
		RequireAuth(next)(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}
