package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/common"
	"github.com/readyinterview/client-go/internal/logging"
	"github.com/readyinterview/client-go/internal/netx"
)

const defaultRequestTimeout = 12 * time.Second

// Tokens within this margin of their expiry are refreshed up front
// instead of burning a round trip on a TOKEN_EXPIRED response.
const tokenExpiryLeeway = 30 * time.Second

// HTTPClient talks to the hosted identity/document/file service over its
// REST surface. It holds the current token pair; on a token-expired
// response it refreshes once and retries the request.
type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     logging.Logger
	cache   TokenCache

	mu           sync.Mutex
	durable      bool
	idToken      string
	refreshToken string
	expiresAt    time.Time
	principal    *models.Principal

	cbMu        sync.Mutex
	callbacks   map[int]func(*models.Principal)
	nextCB      int
	restoreOnce sync.Once
}

// HTTPOption customizes an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPDoer overrides the underlying *http.Client (tests, proxies).
func WithHTTPDoer(c *http.Client) HTTPOption {
	return func(h *HTTPClient) { h.http = c }
}

// WithTokenCache wires a persistent refresh-token store. Without one,
// sessions never survive a restart regardless of the persistence mode.
func WithTokenCache(cache TokenCache) HTTPOption {
	return func(h *HTTPClient) { h.cache = cache }
}

// NewHTTPClient builds a client for the service rooted at baseURL.
func NewHTTPClient(baseURL, apiKey string, log logging.Logger, opts ...HTTPOption) *HTTPClient {
	h := &HTTPClient{
		baseURL:   baseURL,
		apiKey:    apiKey,
		http:      &http.Client{Timeout: defaultRequestTimeout},
		log:       log,
		cache:     &MemoryTokenCache{},
		durable:   true,
		callbacks: make(map[int]func(*models.Principal)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// wire DTOs

type wireError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type signInResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	EmailVerified bool   `json:"emailVerified"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	CreatedAt     int64  `json:"createdAt,string"`
	LastLoginAt   int64  `json:"lastLoginAt,string"`
}

type refreshResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

func (c *HTTPClient) endpoint(path string) string {
	return c.baseURL + path + "?key=" + c.apiKey
}

// post sends a JSON body and decodes a JSON response. Non-2xx responses
// are turned into mapped backend errors.
func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *HTTPClient) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return mapTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return mapTransportError(err)
	}
	if resp.StatusCode >= 400 {
		var we wireError
		if json.Unmarshal(raw, &we) == nil && we.Error.Message != "" {
			switch we.Error.Message {
			case "TOKEN_EXPIRED":
				return common.ErrTokenExpired
			case "NOT_FOUND":
				return common.ErrNotFound
			}
			return mapWireError(we.Error.Message)
		}
		if resp.StatusCode == http.StatusNotFound {
			return common.ErrNotFound
		}
		return fmt.Errorf("backend: unexpected status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// freshToken returns an ID token fit for an authenticated request,
// refreshing up front when the current one is at or near its expiry.
func (c *HTTPClient) freshToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.idToken
	expiresAt := c.expiresAt
	c.mu.Unlock()
	if token == "" {
		return "", common.ErrUnauthorized
	}
	if !expiresAt.IsZero() && !time.Now().Before(expiresAt.Add(-tokenExpiryLeeway)) {
		if err := c.refresh(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		token = c.idToken
		c.mu.Unlock()
	}
	return token, nil
}

// authedPost is post with the current ID token attached. Near-expired
// tokens are refreshed up front; an unexpected TOKEN_EXPIRED response
// still refreshes once and retries, mirroring an interceptor.
func (c *HTTPClient) authedPost(ctx context.Context, path string, body map[string]any, out any) error {
	token, err := c.freshToken(ctx)
	if err != nil {
		return err
	}

	withToken := func(token string) error {
		payload := make(map[string]any, len(body)+1)
		for k, v := range body {
			payload[k] = v
		}
		payload["idToken"] = token
		return c.post(ctx, path, payload, out)
	}

	err = withToken(token)
	if err == nil || !isTokenExpired(err) {
		return err
	}

	if err := c.refresh(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	token = c.idToken
	c.mu.Unlock()
	return withToken(token)
}

func isTokenExpired(err error) bool {
	return errors.Is(err, common.ErrTokenExpired)
}

func (c *HTTPClient) refresh(ctx context.Context) error {
	c.mu.Lock()
	rt := c.refreshToken
	c.mu.Unlock()
	if rt == "" {
		return common.ErrUnauthorized
	}

	var out refreshResponse
	err := c.post(ctx, "/v1/token", map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": rt,
	}, &out)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.idToken = out.IDToken
	c.refreshToken = out.RefreshToken
	c.expiresAt = c.expiryFromToken(out.IDToken, out.ExpiresIn)
	durable := c.durable
	c.mu.Unlock()

	if durable && c.cache != nil {
		if err := c.cache.SaveRefreshToken(ctx, out.RefreshToken); err != nil {
			c.log.Warn(ctx, "persisting refresh token failed", "err", err)
		}
	}
	return nil
}

// expiryFromToken prefers the exp claim of the ID token and falls back to
// the advertised lifetime. The token is not signature-checked here; the
// backend is the authority, the claim is only a refresh hint.
func (c *HTTPClient) expiryFromToken(idToken, expiresIn string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if secs, err := strconv.Atoi(expiresIn); err == nil {
		return time.Now().Add(time.Duration(secs) * time.Second)
	}
	return time.Now().Add(time.Hour)
}

func principalFromSignIn(r *signInResponse) *models.Principal {
	return &models.Principal{
		UID:           r.LocalID,
		Email:         r.Email,
		DisplayName:   r.DisplayName,
		EmailVerified: r.EmailVerified,
		Metadata: models.Metadata{
			CreationTime:   time.UnixMilli(r.CreatedAt),
			LastSignInTime: time.UnixMilli(r.LastLoginAt),
		},
	}
}

func (c *HTTPClient) adoptSession(ctx context.Context, r *signInResponse) *models.Principal {
	p := principalFromSignIn(r)

	c.mu.Lock()
	c.idToken = r.IDToken
	c.refreshToken = r.RefreshToken
	c.expiresAt = c.expiryFromToken(r.IDToken, r.ExpiresIn)
	c.principal = p
	durable := c.durable
	c.mu.Unlock()

	if durable && c.cache != nil {
		if err := c.cache.SaveRefreshToken(ctx, r.RefreshToken); err != nil {
			c.log.Warn(ctx, "persisting refresh token failed", "err", err)
		}
	}
	c.emit(p)
	return p
}

// --- AuthAPI ---

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (*models.Principal, error) {
	var out signInResponse
	err := c.post(ctx, "/v1/accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return c.adoptSession(ctx, &out), nil
}

func (c *HTTPClient) SignUp(ctx context.Context, email, password, displayName string) (*models.Principal, error) {
	var out signInResponse
	err := c.post(ctx, "/v1/accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	p := c.adoptSession(ctx, &out)

	if displayName != "" {
		if err := c.UpdateAuthProfile(ctx, displayName, nil); err != nil {
			return nil, err
		}
		p.DisplayName = displayName
	}
	return p, nil
}

func (c *HTTPClient) SignInWithIDP(ctx context.Context, providerID, idToken string) (*models.Principal, error) {
	var out signInResponse
	err := c.post(ctx, "/v1/accounts:signInWithIdp", map[string]any{
		"postBody":          fmt.Sprintf("id_token=%s&providerId=%s", idToken, providerID),
		"returnSecureToken": true,
	}, &out)
	if err != nil {
		return nil, err
	}
	return c.adoptSession(ctx, &out), nil
}

func (c *HTTPClient) SignOut(ctx context.Context) error {
	c.mu.Lock()
	c.idToken = ""
	c.refreshToken = ""
	c.expiresAt = time.Time{}
	c.principal = nil
	c.mu.Unlock()

	var err error
	if c.cache != nil {
		err = c.cache.ClearRefreshToken(ctx)
	}
	c.emit(nil)
	return err
}

func (c *HTTPClient) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/v1/accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (c *HTTPClient) SendEmailVerification(ctx context.Context) error {
	return c.authedPost(ctx, "/v1/accounts:sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
	}, nil)
}

func (c *HTTPClient) Reauthenticate(ctx context.Context, password string) error {
	c.mu.Lock()
	p := c.principal
	c.mu.Unlock()
	if p == nil {
		return common.ErrUnauthorized
	}
	_, err := c.SignIn(ctx, p.Email, password)
	return err
}

func (c *HTTPClient) UpdateAuthProfile(ctx context.Context, displayName string, photoURL *string) error {
	body := map[string]any{"returnSecureToken": false}
	if displayName != "" {
		body["displayName"] = displayName
	}
	if photoURL == nil {
		body["deleteAttribute"] = []string{"PHOTO_URL"}
	} else {
		body["photoUrl"] = *photoURL
	}
	if err := c.authedPost(ctx, "/v1/accounts:update", body, nil); err != nil {
		return err
	}

	c.mu.Lock()
	if c.principal != nil && displayName != "" {
		c.principal.DisplayName = displayName
	}
	c.mu.Unlock()
	return nil
}

func (c *HTTPClient) DeleteAccount(ctx context.Context) error {
	if err := c.authedPost(ctx, "/v1/accounts:delete", map[string]any{}, nil); err != nil {
		return err
	}
	return c.SignOut(ctx)
}

func (c *HTTPClient) SetPersistence(durable bool) {
	c.mu.Lock()
	c.durable = durable
	c.mu.Unlock()
}

// OnAuthChange registers fn on the auth-state stream. The first
// registration kicks off session restore from the token cache; fn is
// invoked once the restore resolves and on every later transition. If the
// backend is unreachable during restore, no event is emitted; the caller
// owns any timeout policy.
func (c *HTTPClient) OnAuthChange(fn func(*models.Principal)) (cancel func()) {
	c.cbMu.Lock()
	id := c.nextCB
	c.nextCB++
	c.callbacks[id] = fn
	c.cbMu.Unlock()

	c.restoreOnce.Do(func() {
		go c.restore(context.Background())
	})

	return func() {
		c.cbMu.Lock()
		delete(c.callbacks, id)
		c.cbMu.Unlock()
	}
}

func (c *HTTPClient) restore(ctx context.Context) {
	rt := ""
	if c.cache != nil {
		var err error
		rt, err = c.cache.LoadRefreshToken(ctx)
		if err != nil {
			c.log.Warn(ctx, "loading cached refresh token failed", "err", err)
		}
	}
	if rt == "" {
		c.emit(nil)
		return
	}

	c.mu.Lock()
	c.refreshToken = rt
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	if err := c.refresh(ctx); err != nil {
		if errors.Is(err, common.ErrUnavailable) {
			// Unreachable backend: stay silent, the subscriber's
			// resolution timeout takes over.
			c.log.Warn(ctx, "session restore failed", "err", err)
			return
		}
		// Cached token rejected: resolve to signed-out.
		_ = c.SignOut(context.WithoutCancel(ctx))
		return
	}

	p, err := c.lookup(ctx)
	if err != nil {
		c.log.Warn(ctx, "account lookup after restore failed", "err", err)
		return
	}

	c.mu.Lock()
	c.principal = p
	c.mu.Unlock()
	c.emit(p)
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		EmailVerified bool   `json:"emailVerified"`
		CreatedAt     int64  `json:"createdAt,string"`
		LastLoginAt   int64  `json:"lastLoginAt,string"`
	} `json:"users"`
}

func (c *HTTPClient) lookup(ctx context.Context) (*models.Principal, error) {
	var out lookupResponse
	if err := c.authedPost(ctx, "/v1/accounts:lookup", map[string]any{}, &out); err != nil {
		return nil, err
	}
	if len(out.Users) == 0 {
		return nil, common.ErrNotFound
	}
	u := out.Users[0]
	return &models.Principal{
		UID:           u.LocalID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		EmailVerified: u.EmailVerified,
		Metadata: models.Metadata{
			CreationTime:   time.UnixMilli(u.CreatedAt),
			LastSignInTime: time.UnixMilli(u.LastLoginAt),
		},
	}, nil
}

func (c *HTTPClient) emit(p *models.Principal) {
	c.cbMu.Lock()
	fns := make([]func(*models.Principal), 0, len(c.callbacks))
	for _, fn := range c.callbacks {
		fns = append(fns, fn)
	}
	c.cbMu.Unlock()

	for _, fn := range fns {
		fn(p)
	}
}

// --- DocAPI ---

const timestampMarker = "SERVER_TIMESTAMP"

// profileWire mirrors models.ProfileDocument with timestamp fields as raw
// values so the server marker can travel as a string.
type profileWire struct {
	Email         string       `json:"email,omitempty"`
	DisplayName   string       `json:"displayName,omitempty"`
	Role          *models.Role `json:"role,omitempty"`
	PhotoURL      *string      `json:"photoURL,omitempty"`
	Phone         *string      `json:"phone,omitempty"`
	RecoveryEmail *string      `json:"recoveryEmail,omitempty"`
	Status        string       `json:"status,omitempty"`
	CreatedAt     any          `json:"createdAt,omitempty"`
	UpdatedAt     any          `json:"updatedAt,omitempty"`
}

func encodeStamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	if IsServerTimestamp(t) {
		return timestampMarker
	}
	return t.UTC().Format(time.RFC3339)
}

// doAuthed runs a bearer-authenticated request built by build. Near-expired
// tokens are refreshed up front; an unexpected TOKEN_EXPIRED response still
// refreshes once and retries.
func (c *HTTPClient) doAuthed(ctx context.Context, build func() (*http.Request, error), out any) error {
	attempt := func() error {
		token, err := c.freshToken(ctx)
		if err != nil {
			return err
		}
		req, err := build()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return c.send(req, out)
	}

	err := attempt()
	if err == nil || !isTokenExpired(err) {
		return err
	}
	if err := c.refresh(ctx); err != nil {
		return err
	}
	return attempt()
}

func (c *HTTPClient) GetProfile(ctx context.Context, uid string) (*models.ProfileDocument, error) {
	var doc models.ProfileDocument
	err := c.doAuthed(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/v1/profiles/"+uid), nil)
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *HTTPClient) SetProfile(ctx context.Context, uid string, doc *models.ProfileDocument, merge bool) error {
	wire := profileWire{
		Email:         doc.Email,
		DisplayName:   doc.DisplayName,
		Role:          doc.Role,
		PhotoURL:      doc.PhotoURL,
		Phone:         doc.Phone,
		RecoveryEmail: doc.RecoveryEmail,
		Status:        doc.Status,
		CreatedAt:     encodeStamp(doc.CreatedAt),
		UpdatedAt:     encodeStamp(doc.UpdatedAt),
	}

	method := http.MethodPut
	if merge {
		method = http.MethodPatch
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return err
	}
	return c.doAuthed(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, method, c.endpoint("/v1/profiles/"+uid), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, nil)
}

// --- FileAPI ---

type uploadGrant struct {
	UploadURL   string `json:"uploadUrl"`
	DownloadURL string `json:"downloadUrl"`
}

// UploadAvatar asks the backend for an upload grant under the user's path,
// PUTs the bytes there, and returns the durable retrieval URL.
func (c *HTTPClient) UploadAvatar(ctx context.Context, uid string, data []byte, contentType string) (string, error) {
	objectName := uuid.NewString()
	var grant uploadGrant
	err := c.authedPost(ctx, "/v1/uploads", map[string]any{
		"path":        fmt.Sprintf("avatars/%s/%s", uid, objectName),
		"contentType": contentType,
	}, &grant)
	if err != nil {
		return "", err
	}

	if err := netx.UploadToURL(ctx, c.http, grant.UploadURL, data, contentType); err != nil {
		return "", fmt.Errorf("avatar upload: %w", err)
	}
	return grant.DownloadURL, nil
}

var _ Service = (*HTTPClient)(nil)
