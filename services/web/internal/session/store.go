// Package session owns the credentials of every browser session. All
// writes go through the named operations of Store, each of which replaces
// the persisted record of one scope in a single step.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"qanunai/internal/usertoken"
	"qanunai/internal/util"
	"qanunai/pkg/domain"
	"qanunai/services/web/internal/apiclient"
)

var (
	// ErrNotAuthenticated is returned by operations that need a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrUnknownRole is returned when the backend signs in an account whose
	// role is neither USER nor LAWYER.
	ErrUnknownRole = errors.New("account role is not supported")
)

// Scope names the persisted keys of one credential scope.
type Scope struct {
	Name       string
	TokenKey   string
	RefreshKey string
	RoleKey    string
	UserKey    string
}

var (
	UserScope  = Scope{Name: "user", TokenKey: "authToken", RefreshKey: "refreshToken", RoleKey: "authRole", UserKey: "authUser"}
	AdminScope = Scope{Name: "admin", TokenKey: "adminToken", RefreshKey: "adminRefreshToken", UserKey: "adminUser"}
)

// Authenticator is the part of the backend the session store needs.
type Authenticator interface {
	Login(ctx context.Context, email, password string, role domain.Role) (domain.AuthResult, error)
	Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error)
	Logout(ctx context.Context, token, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
	VerifyEmail(ctx context.Context, token, code string) (domain.User, error)
	AdminLogin(ctx context.Context, email, password string) (apiclient.AdminAuthResult, error)
}

// State is the user scope of one browser session.
type State struct {
	AccessToken  string
	RefreshToken string
	Role         domain.Role
	User         *domain.User
}

// Session derives the gate's view of the state. Lawyer status is only
// carried for lawyers.
func (s State) Session() domain.Session {
	if s.AccessToken == "" || domain.ParseRole(string(s.Role)) == "" || s.User == nil {
		return domain.Session{}
	}
	session := domain.Session{
		Authenticated: true,
		Role:          s.Role,
		Verified:      s.User.IsVerified,
	}
	if s.Role == domain.RoleLawyer {
		session.LawyerStatus = s.User.LawyerStatus
	}
	return session
}

// Authenticated reports whether the state holds a complete credential.
func (s State) Authenticated() bool {
	return s.Session().Authenticated
}

// AdminState is the admin scope of one browser session.
type AdminState struct {
	AccessToken  string
	RefreshToken string
	User         *domain.AdminUser
}

// Authenticated reports whether an admin credential is present.
func (s AdminState) Authenticated() bool {
	return s.AccessToken != ""
}

// Store runs the session operations against the backend and the persister.
type Store struct {
	persister Persister
	auth      Authenticator
	leeway    time.Duration
	now       func() time.Time

	refreshes singleflight.Group
	locks     [64]sync.Mutex

	hookMu    sync.RWMutex
	signedOut func(sid string)
}

// NewStore builds a session store. leeway is how long before expiry an
// access token is refreshed.
func NewStore(persister Persister, auth Authenticator, leeway time.Duration) *Store {
	if leeway <= 0 {
		leeway = usertoken.DefaultLeeway
	}
	return &Store{persister: persister, auth: auth, leeway: leeway, now: time.Now}
}

// OnSignedOut registers fn to run, on its own goroutine, whenever a rejected
// refresh signs a session out.
func (s *Store) OnSignedOut(fn func(sid string)) {
	s.hookMu.Lock()
	defer s.hookMu.Unlock()
	s.signedOut = fn
}

func (s *Store) lock(sid string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sid))
	mu := &s.locks[h.Sum32()%uint32(len(s.locks))]
	mu.Lock()
	return mu.Unlock
}

// State restores the user scope. A record missing its token, role or user
// restores as signed out.
func (s *Store) State(ctx context.Context, sid string) (State, error) {
	record, err := s.persister.Load(ctx, sid, UserScope.Name)
	if err != nil {
		return State{}, err
	}
	return decodeState(record), nil
}

func decodeState(record map[string]string) State {
	token := record[UserScope.TokenKey]
	role := domain.ParseRole(record[UserScope.RoleKey])
	rawUser := record[UserScope.UserKey]
	if token == "" || role == "" || rawUser == "" {
		return State{}
	}
	var user domain.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return State{}
	}
	return State{
		AccessToken:  token,
		RefreshToken: record[UserScope.RefreshKey],
		Role:         role,
		User:         &user,
	}
}

func encodeState(state State) (map[string]string, error) {
	user, err := json.Marshal(state.User)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		UserScope.TokenKey:   state.AccessToken,
		UserScope.RefreshKey: state.RefreshToken,
		UserScope.RoleKey:    string(state.Role),
		UserScope.UserKey:    string(user),
	}, nil
}

func (s *Store) replace(ctx context.Context, sid string, state State) (State, error) {
	record, err := encodeState(state)
	if err != nil {
		return State{}, err
	}
	if err := s.persister.Save(ctx, sid, UserScope.Name, record); err != nil {
		return State{}, fmt.Errorf("save session: %w", err)
	}
	return state, nil
}

func fromAuth(res domain.AuthResult) (State, error) {
	user := res.User
	role := domain.ParseRole(string(user.Role))
	if role == "" {
		return State{}, fmt.Errorf("%w: %q", ErrUnknownRole, user.Role)
	}
	user.Role = role
	return State{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Role:         role,
		User:         &user,
	}, nil
}

// Login signs in and replaces the user scope.
func (s *Store) Login(ctx context.Context, sid, email, password string, role domain.Role) (State, error) {
	res, err := s.auth.Login(ctx, email, password, role)
	if err != nil {
		return State{}, err
	}
	state, err := fromAuth(res)
	if err != nil {
		return State{}, err
	}
	defer s.lock(sid)()
	return s.replace(ctx, sid, state)
}

// Register signs up and replaces the user scope. The bool reports whether
// the new account still has to verify its email.
func (s *Store) Register(ctx context.Context, sid string, reg domain.Registration) (State, bool, error) {
	res, err := s.auth.Register(ctx, reg)
	if err != nil {
		return State{}, false, err
	}
	state, err := fromAuth(res)
	if err != nil {
		return State{}, false, err
	}
	unlock := s.lock(sid)
	defer unlock()
	state, err = s.replace(ctx, sid, state)
	if err != nil {
		return State{}, false, err
	}
	return state, res.RequiresVerification || !res.User.IsVerified, nil
}

// Logout clears the user scope. A backend failure does not keep the user signed in.
func (s *Store) Logout(ctx context.Context, sid string) error {
	defer s.lock(sid)()
	state, err := s.State(ctx, sid)
	if err == nil && state.RefreshToken != "" {
		if err := s.auth.Logout(ctx, state.AccessToken, state.RefreshToken); err != nil {
			util.LoggerFromContext(ctx).Info("backend logout failed", "error", err)
		}
	}
	return s.persister.Delete(ctx, sid, UserScope.Name)
}

// UpdateUser replaces the stored user record, keeping the tokens and role.
func (s *Store) UpdateUser(ctx context.Context, sid string, user domain.User) (State, error) {
	defer s.lock(sid)()
	state, err := s.State(ctx, sid)
	if err != nil {
		return State{}, err
	}
	if !state.Authenticated() {
		return State{}, ErrNotAuthenticated
	}
	state.User = &user
	return s.replace(ctx, sid, state)
}

// VerifyEmail submits the verification code and stores the updated user.
func (s *Store) VerifyEmail(ctx context.Context, sid, code string) (State, error) {
	state, err := s.State(ctx, sid)
	if err != nil {
		return State{}, err
	}
	if !state.Authenticated() {
		return State{}, ErrNotAuthenticated
	}
	user, err := s.auth.VerifyEmail(ctx, state.AccessToken, code)
	if err != nil {
		return State{}, err
	}
	return s.UpdateUser(ctx, sid, user)
}

// EnsureFresh returns the user scope, refreshing the access token first when
// it expires within the leeway.
func (s *Store) EnsureFresh(ctx context.Context, sid string) (State, error) {
	state, err := s.State(ctx, sid)
	if err != nil || !state.Authenticated() {
		return state, err
	}
	if !usertoken.NeedsRefresh(state.AccessToken, s.now(), s.leeway) {
		return state, nil
	}
	fresh, err := s.refresh(ctx, sid, false)
	if err != nil && fresh.Authenticated() {
		// Transport failure: keep serving the current token until the backend rejects it.
		util.LoggerFromContext(ctx).Warn("session refresh failed", "error", err)
		return fresh, nil
	}
	return fresh, err
}

// Refresh exchanges the refresh token for a new access token. Concurrent
// refreshes of one session share a single backend call. A refresh the
// backend rejects signs the session out.
func (s *Store) Refresh(ctx context.Context, sid string) (State, error) {
	return s.refresh(ctx, sid, true)
}

func (s *Store) refresh(ctx context.Context, sid string, force bool) (State, error) {
	v, err, _ := s.refreshes.Do(sid, func() (any, error) {
		unlock := s.lock(sid)
		defer unlock()
		state, err := s.State(ctx, sid)
		if err != nil {
			return State{}, err
		}
		if !state.Authenticated() {
			return State{}, ErrNotAuthenticated
		}
		if !force && !usertoken.NeedsRefresh(state.AccessToken, s.now(), s.leeway) {
			return state, nil
		}
		if state.RefreshToken == "" {
			return State{}, s.signOut(ctx, sid, errors.New("no refresh token"))
		}
		access, rotated, err := s.auth.Refresh(ctx, state.RefreshToken)
		if err != nil {
			if rejected(err) {
				return State{}, s.signOut(ctx, sid, err)
			}
			return state, fmt.Errorf("refresh token: %w", err)
		}
		state.AccessToken = access
		if rotated != "" {
			state.RefreshToken = rotated
		}
		return s.replace(ctx, sid, state)
	})
	state, _ := v.(State)
	if errors.Is(err, errSignedOut) {
		return State{}, nil
	}
	return state, err
}

var errSignedOut = errors.New("session signed out")

// signOut must be called with the session lock held.
func (s *Store) signOut(ctx context.Context, sid string, cause error) error {
	util.LoggerFromContext(ctx).Info("session refresh rejected", "reason", cause.Error())
	if err := s.persister.Delete(ctx, sid, UserScope.Name); err != nil {
		return err
	}
	s.hookMu.RLock()
	hook := s.signedOut
	s.hookMu.RUnlock()
	if hook != nil {
		go hook(sid)
	}
	return errSignedOut
}

func rejected(err error) bool {
	var apiErr *apiclient.APIError
	return errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError
}

// AdminState restores the admin scope.
func (s *Store) AdminState(ctx context.Context, sid string) (AdminState, error) {
	record, err := s.persister.Load(ctx, sid, AdminScope.Name)
	if err != nil {
		return AdminState{}, err
	}
	token := record[AdminScope.TokenKey]
	if token == "" {
		return AdminState{}, nil
	}
	state := AdminState{AccessToken: token, RefreshToken: record[AdminScope.RefreshKey]}
	if raw := record[AdminScope.UserKey]; raw != "" {
		var user domain.AdminUser
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			state.User = &user
		}
	}
	return state, nil
}

// AdminLogin signs in to the admin portal and replaces the admin scope.
// The user scope is not touched.
func (s *Store) AdminLogin(ctx context.Context, sid, email, password string) (AdminState, error) {
	res, err := s.auth.AdminLogin(ctx, email, password)
	if err != nil {
		return AdminState{}, err
	}
	user, err := json.Marshal(res.User)
	if err != nil {
		return AdminState{}, err
	}
	defer s.lock(sid)()
	record := map[string]string{
		AdminScope.TokenKey:   res.AccessToken,
		AdminScope.RefreshKey: res.RefreshToken,
		AdminScope.UserKey:    string(user),
	}
	if err := s.persister.Save(ctx, sid, AdminScope.Name, record); err != nil {
		return AdminState{}, fmt.Errorf("save admin session: %w", err)
	}
	admin := res.User
	return AdminState{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken, User: &admin}, nil
}

// AdminLogout clears the admin scope only.
func (s *Store) AdminLogout(ctx context.Context, sid string) error {
	defer s.lock(sid)()
	return s.persister.Delete(ctx, sid, AdminScope.Name)
}
