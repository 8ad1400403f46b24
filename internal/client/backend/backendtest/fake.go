// Package backendtest provides an in-memory implementation of the backend
// service interfaces for tests: seedable accounts and profiles, injectable
// failures, and direct control over the auth-state stream.
package backendtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/readyinterview/client-go/internal/client/backend"
	"github.com/readyinterview/client-go/internal/client/models"
	"github.com/readyinterview/client-go/internal/common"
	"github.com/readyinterview/client-go/internal/errmap"
)

type account struct {
	uid         string
	email       string
	password    string
	displayName string
	verified    bool
	created     time.Time
	lastSignIn  time.Time
}

// Fake implements backend.Service in memory.
//
// Error fields, when set, are returned by the corresponding operation
// before any state change. SilentStart suppresses the initial auth-state
// emission, simulating an unreachable backend.
type Fake struct {
	mu        sync.Mutex
	accounts  map[string]*account // keyed by email
	profiles  map[string]*models.ProfileDocument
	current   *models.Principal
	durable   bool
	callbacks map[int]func(*models.Principal)
	nextCB    int

	Now func() time.Time

	SignInErr     error
	SignUpErr     error
	SignOutErr    error
	ResetErr      error
	VerifyErr     error
	ReauthErr     error
	UpdateErr     error
	DeleteErr     error
	GetProfileErr error
	SetProfileErr error
	UploadErr     error
	SilentStart   bool

	ResetsSent        []string
	VerificationsSent int
	Uploads           []string
}

func New() *Fake {
	return &Fake{
		accounts:  make(map[string]*account),
		profiles:  make(map[string]*models.ProfileDocument),
		callbacks: make(map[int]func(*models.Principal)),
		durable:   true,
		Now:       time.Now,
	}
}

// AddAccount seeds a backend account and returns its uid.
func (f *Fake) AddAccount(email, password, displayName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid := "uid-" + uuid.NewString()[:8]
	f.accounts[email] = &account{
		uid:         uid,
		email:       email,
		password:    password,
		displayName: displayName,
		created:     f.Now(),
	}
	return uid
}

// SetProfileDoc seeds a profile document directly.
func (f *Fake) SetProfileDoc(uid string, doc models.ProfileDocument) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[uid] = &doc
}

// ProfileDoc returns a copy of the stored document, or nil.
func (f *Fake) ProfileDoc(uid string) *models.ProfileDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.profiles[uid]
	if !ok {
		return nil
	}
	cp := *doc
	return &cp
}

// Current returns the principal the fake considers signed in.
func (f *Fake) Current() *models.Principal {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Emit pushes an auth event to all subscribers, bypassing operations.
func (f *Fake) Emit(p *models.Principal) {
	f.mu.Lock()
	f.current = p
	f.mu.Unlock()
	f.notify(p)
}

func (f *Fake) notify(p *models.Principal) {
	f.mu.Lock()
	fns := make([]func(*models.Principal), 0, len(f.callbacks))
	for _, fn := range f.callbacks {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(p)
	}
}

func (a *account) principal() *models.Principal {
	return &models.Principal{
		UID:           a.uid,
		Email:         a.email,
		DisplayName:   a.displayName,
		EmailVerified: a.verified,
		Metadata: models.Metadata{
			CreationTime:   a.created,
			LastSignInTime: a.lastSignIn,
		},
	}
}

// --- backend.AuthAPI ---

func (f *Fake) SignIn(_ context.Context, email, password string) (*models.Principal, error) {
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	f.mu.Lock()
	acc, ok := f.accounts[email]
	if !ok {
		f.mu.Unlock()
		return nil, errmap.New("auth/user-not-found", common.ErrInvalidCredentials)
	}
	if acc.password != password {
		f.mu.Unlock()
		return nil, errmap.New("auth/wrong-password", common.ErrInvalidCredentials)
	}
	acc.lastSignIn = f.Now()
	p := acc.principal()
	f.current = p
	f.mu.Unlock()

	f.notify(p)
	return p, nil
}

func (f *Fake) SignUp(_ context.Context, email, password, displayName string) (*models.Principal, error) {
	if f.SignUpErr != nil {
		return nil, f.SignUpErr
	}
	f.mu.Lock()
	if _, exists := f.accounts[email]; exists {
		f.mu.Unlock()
		return nil, errmap.New("auth/email-already-in-use", common.ErrEmailInUse)
	}
	acc := &account{
		uid:         "uid-" + uuid.NewString()[:8],
		email:       email,
		password:    password,
		displayName: displayName,
		created:     f.Now(),
		lastSignIn:  f.Now(),
	}
	f.accounts[email] = acc
	p := acc.principal()
	f.current = p
	f.mu.Unlock()

	f.notify(p)
	return p, nil
}

// SignInWithIDP treats idToken as "<email>" for test convenience: an
// account is created on first sight of a given federated principal.
func (f *Fake) SignInWithIDP(_ context.Context, providerID, idToken string) (*models.Principal, error) {
	if f.SignInErr != nil {
		return nil, f.SignInErr
	}
	email := strings.TrimSpace(idToken)
	f.mu.Lock()
	acc, ok := f.accounts[email]
	if !ok {
		acc = &account{
			uid:      "uid-" + uuid.NewString()[:8],
			email:    email,
			verified: true,
			created:  f.Now(),
		}
		f.accounts[email] = acc
	}
	acc.lastSignIn = f.Now()
	p := acc.principal()
	f.current = p
	f.mu.Unlock()

	f.notify(p)
	return p, nil
}

func (f *Fake) SignOut(context.Context) error {
	if f.SignOutErr != nil {
		return f.SignOutErr
	}
	f.mu.Lock()
	f.current = nil
	f.mu.Unlock()
	f.notify(nil)
	return nil
}

func (f *Fake) SendPasswordReset(_ context.Context, email string) error {
	if f.ResetErr != nil {
		return f.ResetErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResetsSent = append(f.ResetsSent, email)
	return nil
}

func (f *Fake) SendEmailVerification(context.Context) error {
	if f.VerifyErr != nil {
		return f.VerifyErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VerificationsSent++
	return nil
}

func (f *Fake) Reauthenticate(_ context.Context, password string) error {
	if f.ReauthErr != nil {
		return f.ReauthErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return common.ErrUnauthorized
	}
	acc, ok := f.accounts[f.current.Email]
	if !ok || acc.password != password {
		return errmap.New("auth/wrong-password", common.ErrInvalidCredentials)
	}
	return nil
}

func (f *Fake) UpdateAuthProfile(_ context.Context, displayName string, _ *string) error {
	if f.UpdateErr != nil {
		return f.UpdateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return common.ErrUnauthorized
	}
	if acc, ok := f.accounts[f.current.Email]; ok && displayName != "" {
		acc.displayName = displayName
		f.current.DisplayName = displayName
	}
	return nil
}

func (f *Fake) DeleteAccount(ctx context.Context) error {
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	f.mu.Lock()
	if f.current != nil {
		delete(f.accounts, f.current.Email)
	}
	f.current = nil
	f.mu.Unlock()
	f.notify(nil)
	return nil
}

func (f *Fake) SetPersistence(durable bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durable = durable
}

// Durable reports the last persistence mode selected.
func (f *Fake) Durable() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.durable
}

func (f *Fake) OnAuthChange(fn func(*models.Principal)) (cancel func()) {
	f.mu.Lock()
	id := f.nextCB
	f.nextCB++
	f.callbacks[id] = fn
	p := f.current
	silent := f.SilentStart
	f.mu.Unlock()

	if !silent {
		fn(p)
	}
	return func() {
		f.mu.Lock()
		delete(f.callbacks, id)
		f.mu.Unlock()
	}
}

// --- backend.DocAPI ---

func (f *Fake) GetProfile(_ context.Context, uid string) (*models.ProfileDocument, error) {
	if f.GetProfileErr != nil {
		return nil, f.GetProfileErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.profiles[uid]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *doc
	return &cp, nil
}

func (f *Fake) SetProfile(_ context.Context, uid string, doc *models.ProfileDocument, merge bool) error {
	if f.SetProfileErr != nil {
		return f.SetProfileErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	in := *doc
	f.resolveStamps(&in)

	if !merge {
		f.profiles[uid] = &in
		return nil
	}

	cur, ok := f.profiles[uid]
	if !ok {
		f.profiles[uid] = &in
		return nil
	}
	if in.Email != "" {
		cur.Email = in.Email
	}
	if in.DisplayName != "" {
		cur.DisplayName = in.DisplayName
	}
	if in.Role != nil {
		cur.Role = in.Role
	}
	if in.PhotoURL != nil {
		cur.PhotoURL = in.PhotoURL
	}
	if in.Phone != nil {
		cur.Phone = in.Phone
	}
	if in.RecoveryEmail != nil {
		cur.RecoveryEmail = in.RecoveryEmail
	}
	if in.Status != "" {
		cur.Status = in.Status
	}
	if in.CreatedAt != nil {
		cur.CreatedAt = in.CreatedAt
	}
	if in.UpdatedAt != nil {
		cur.UpdatedAt = in.UpdatedAt
	}
	return nil
}

func (f *Fake) resolveStamps(doc *models.ProfileDocument) {
	now := f.Now()
	if backend.IsServerTimestamp(doc.CreatedAt) {
		doc.CreatedAt = &now
	}
	if backend.IsServerTimestamp(doc.UpdatedAt) {
		doc.UpdatedAt = &now
	}
}

// --- backend.FileAPI ---

func (f *Fake) UploadAvatar(_ context.Context, uid string, data []byte, _ string) (string, error) {
	if f.UploadErr != nil {
		return "", f.UploadErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("https://files.test/avatars/%s/%d", uid, len(f.Uploads))
	f.Uploads = append(f.Uploads, url)
	return url, nil
}

var _ backend.Service = (*Fake)(nil)
