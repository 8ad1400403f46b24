package backend

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/common"
	"github.com/readyinterview/client-go/internal/errmap"
	"github.com/readyinterview/client-go/internal/logging"
)

// fakeServer scripts the backend's REST surface per path.
type fakeServer struct {
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []string
}

func newFakeServer() (*fakeServer, *httptest.Server) {
	fs := &fakeServer{handlers: make(map[string]http.HandlerFunc)}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.requests = append(fs.requests, r.Method+" "+r.URL.Path)
		h, ok := fs.handlers[r.URL.Path]
		fs.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	return fs, ts
}

func (fs *fakeServer) on(path string, h http.HandlerFunc) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.handlers[path] = h
}

func (fs *fakeServer) calls(path string) int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, r := range fs.requests {
		if strings.HasSuffix(r, path) {
			n++
		}
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func wireErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

func signInOK(w http.ResponseWriter, uid string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"localId":       uid,
		"email":         "a@b.com",
		"displayName":   "Alice",
		"emailVerified": true,
		"idToken":       "id-token-1",
		"refreshToken":  "refresh-1",
		"expiresIn":     "3600",
		"createdAt":     "1700000000000",
		"lastLoginAt":   "1700000100000",
	})
}

func newTestClient(t *testing.T, ts *httptest.Server, opts ...HTTPOption) *HTTPClient {
	t.Helper()
	return NewHTTPClient(ts.URL, "test-key", logging.Nop(), opts...)
}

func TestHTTPClient_SignIn_ParsesPrincipalAndEmits(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "a@b.com", body["email"])
		signInOK(w, "u-1")
	})

	c := newTestClient(t, ts)

	var mu sync.Mutex
	var events []*models.Principal
	cancel := c.OnAuthChange(func(p *models.Principal) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, p)
	})
	defer cancel()

	p, err := c.SignIn(t.Context(), "a@b.com", "secret")
	require.NoError(t, err)
	require.Equal(t, "u-1", p.UID)
	require.Equal(t, "Alice", p.DisplayName)
	require.True(t, p.EmailVerified)
	require.Equal(t, time.UnixMilli(1700000000000), p.Metadata.CreationTime)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e != nil && e.UID == "u-1" {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond, "sign-in must reach subscribers")
}

func TestHTTPClient_SignIn_MapsWireError(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		wireErr(w, http.StatusBadRequest, "INVALID_PASSWORD")
	})

	c := newTestClient(t, ts)
	_, err := c.SignIn(t.Context(), "a@b.com", "wrongpass")

	require.Error(t, err)
	require.True(t, errors.Is(err, common.ErrInvalidCredentials))
	require.Equal(t, "auth/wrong-password", errmap.CodeOf(err))
	require.Equal(t, "Incorrect password. Please try again or reset your password.", err.Error())
}

func TestHTTPClient_AuthedCall_RefreshesOnceOnExpiredToken(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) { signInOK(w, "u-1") })

	verifyCalls := 0
	fs.on("/v1/accounts:sendOobCode", func(w http.ResponseWriter, r *http.Request) {
		verifyCalls++
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["idToken"] == "id-token-1" {
			wireErr(w, http.StatusUnauthorized, "TOKEN_EXPIRED")
			return
		}
		require.Equal(t, "id-token-2", body["idToken"])
		writeJSON(w, http.StatusOK, map[string]any{})
	})
	fs.on("/v1/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id_token":      "id-token-2",
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
			"user_id":       "u-1",
		})
	})

	c := newTestClient(t, ts)
	_, err := c.SignIn(t.Context(), "a@b.com", "secret")
	require.NoError(t, err)

	require.NoError(t, c.SendEmailVerification(t.Context()))
	require.Equal(t, 2, verifyCalls, "expired call retried exactly once after refresh")
	require.Equal(t, 1, fs.calls("/v1/token"))
}

func TestHTTPClient_AuthedCall_WithoutSessionFails(t *testing.T) {
	_, ts := newFakeServer()
	defer ts.Close()

	c := newTestClient(t, ts)
	err := c.SendEmailVerification(t.Context())
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestHTTPClient_SetProfile_MergeUsesPatchAndStampsMarker(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) { signInOK(w, "u-1") })

	var gotMethod string
	var gotBody map[string]any
	fs.on("/v1/profiles/u-1", func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	c := newTestClient(t, ts)
	_, err := c.SignIn(t.Context(), "a@b.com", "secret")
	require.NoError(t, err)

	role := models.RoleInterviewer
	err = c.SetProfile(t.Context(), "u-1", &models.ProfileDocument{
		DisplayName: "Dr. Alice",
		Role:        &role,
		UpdatedAt:   ServerTimestamp(),
	}, true)
	require.NoError(t, err)

	require.Equal(t, http.MethodPatch, gotMethod)
	require.Equal(t, "Dr. Alice", gotBody["displayName"])
	require.Equal(t, "interviewer", gotBody["role"])
	require.Equal(t, "SERVER_TIMESTAMP", gotBody["updatedAt"])
	_, hasEmail := gotBody["email"]
	require.False(t, hasEmail, "merge write must omit absent fields")
}

func TestHTTPClient_GetProfile_MissingDocumentIsNotFound(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) { signInOK(w, "u-1") })
	fs.on("/v1/profiles/u-1", func(w http.ResponseWriter, r *http.Request) {
		wireErr(w, http.StatusNotFound, "NOT_FOUND")
	})

	c := newTestClient(t, ts)
	_, err := c.SignIn(t.Context(), "a@b.com", "secret")
	require.NoError(t, err)

	doc, err := c.GetProfile(t.Context(), "u-1")
	require.Nil(t, doc)
	require.ErrorIs(t, err, common.ErrNotFound,
		"a missing document must be distinguishable from an unreachable backend")

	// A bare 404 without the wire envelope means the same thing.
	doc, err = c.GetProfile(t.Context(), "u-2")
	require.Nil(t, doc)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestHTTPClient_AuthedCall_RefreshesProactivelyNearExpiry(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"localId":      "u-1",
			"email":        "a@b.com",
			"idToken":      "id-token-1",
			"refreshToken": "refresh-1",
			"expiresIn":    "5",
			"createdAt":    "1700000000000",
			"lastLoginAt":  "1700000100000",
		})
	})
	fs.on("/v1/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id_token":      "id-token-2",
			"refresh_token": "refresh-2",
			"expires_in":    "3600",
			"user_id":       "u-1",
		})
	})
	var gotTokens []string
	fs.on("/v1/accounts:sendOobCode", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotTokens = append(gotTokens, body["idToken"].(string))
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	c := newTestClient(t, ts)
	_, err := c.SignIn(t.Context(), "a@b.com", "secret")
	require.NoError(t, err)

	// The 5s lifetime is inside the refresh leeway, so the call must
	// swap tokens before it goes out rather than eat a TOKEN_EXPIRED.
	require.NoError(t, c.SendEmailVerification(t.Context()))
	require.Equal(t, []string{"id-token-2"}, gotTokens)
	require.Equal(t, 1, fs.calls("/v1/token"))

	// The refreshed token is good for an hour; no further refresh.
	require.NoError(t, c.SendEmailVerification(t.Context()))
	require.Equal(t, 1, fs.calls("/v1/token"))
}

func TestHTTPClient_UploadAvatar_TwoStep(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) { signInOK(w, "u-1") })

	var uploaded []byte
	fs.on("/v1/uploads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"uploadUrl":   ts.URL + "/blob/put",
			"downloadUrl": "https://files.example.com/avatars/u-1/x",
		})
	})
	fs.on("/blob/put", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		uploaded, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	c := newTestClient(t, ts)
	_, err := c.SignIn(t.Context(), "a@b.com", "secret")
	require.NoError(t, err)

	url, err := c.UploadAvatar(t.Context(), "u-1", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/avatars/u-1/x", url)
	require.Equal(t, []byte("png-bytes"), uploaded)
}

func TestHTTPClient_Restore_EmitsNilWithoutCachedToken(t *testing.T) {
	_, ts := newFakeServer()
	defer ts.Close()

	c := newTestClient(t, ts)

	got := make(chan *models.Principal, 1)
	cancel := c.OnAuthChange(func(p *models.Principal) { got <- p })
	defer cancel()

	select {
	case p := <-got:
		require.Nil(t, p)
	case <-time.After(time.Second):
		t.Fatal("expected an initial signed-out event")
	}
}

func TestHTTPClient_Restore_UsesCachedRefreshToken(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id_token":      "id-token-9",
			"refresh_token": "refresh-9",
			"expires_in":    "3600",
			"user_id":       "u-9",
		})
	})
	fs.on("/v1/accounts:lookup", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"users": []map[string]any{{
				"localId":       "u-9",
				"email":         "back@b.com",
				"displayName":   "Returning",
				"emailVerified": true,
				"createdAt":     "1700000000000",
				"lastLoginAt":   "1700000100000",
			}},
		})
	})

	cache := &MemoryTokenCache{}
	require.NoError(t, cache.SaveRefreshToken(t.Context(), "refresh-old"))

	c := newTestClient(t, ts, WithTokenCache(cache))

	got := make(chan *models.Principal, 1)
	cancel := c.OnAuthChange(func(p *models.Principal) { got <- p })
	defer cancel()

	select {
	case p := <-got:
		require.NotNil(t, p)
		require.Equal(t, "u-9", p.UID)
		require.Equal(t, "back@b.com", p.Email)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a restored sign-in event")
	}
}

func TestHTTPClient_SignOut_ClearsCacheAndEmitsNil(t *testing.T) {
	fs, ts := newFakeServer()
	defer ts.Close()
	fs.on("/v1/accounts:signInWithPassword", func(w http.ResponseWriter, r *http.Request) { signInOK(w, "u-1") })

	cache := &MemoryTokenCache{}
	c := newTestClient(t, ts, WithTokenCache(cache))

	_, err := c.SignIn(t.Context(), "a@b.com", "secret")
	require.NoError(t, err)
	saved, _ := cache.LoadRefreshToken(t.Context())
	require.Equal(t, "refresh-1", saved)

	require.NoError(t, c.SignOut(t.Context()))

	saved, _ = cache.LoadRefreshToken(t.Context())
	require.Empty(t, saved)
	require.ErrorIs(t, c.SendEmailVerification(t.Context()), common.ErrUnauthorized)
}
