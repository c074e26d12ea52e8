// Package auth is the identity collaborator. It signs users in and out
// against Firebase Identity Toolkit, keeps the session on disk between CLI
// invocations, and notifies observers when the signed-in user changes.
package auth

import (
	"context"
	"errors"
	"sync"

	fbauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// Federated provider IDs accepted by SignInWithCredential.
const (
	ProviderGoogle = "google.com"
	ProviderApple  = "apple.com"
)

// ErrMissingCredentials is returned when email or password is empty.
var ErrMissingCredentials = errors.New("please enter email and password")

// User is the signed-in identity.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	ProviderID  string `json:"provider_id,omitempty"`
}

// Session is a signed-in user plus the tokens issued for them.
type Session struct {
	User         User   `json:"user"`
	IDToken      string `json:"id_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Result is the outcome of a sign-in or sign-up. On failure Err carries the
// provider's message, suitable for showing to the user as is.
type Result struct {
	Success bool
	User    *User
	Err     error
}

// Credential is a token obtained from a federated identity provider.
type Credential struct {
	ProviderID  string
	IDToken     string
	AccessToken string
}

// Provider performs the remote half of authentication.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignInWithCredential(ctx context.Context, cred Credential) (Session, error)
}

// TokenVerifier checks an ID token. *firebase.google.com/go/v4/auth.Client
// satisfies it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// Client tracks the current user. It is safe for concurrent use.
type Client struct {
	provider Provider
	store    *SessionFile
	verifier TokenVerifier
	log      *zap.SugaredLogger

	mu        sync.Mutex
	current   *Session
	observers map[int]func(*User)
	nextID    int
}

// Option configures a Client.
type Option func(*Client)

// WithVerifier makes Restore check the persisted ID token.
func WithVerifier(v TokenVerifier) Option {
	return func(c *Client) { c.verifier = v }
}

// WithSessionFile persists the session so later processes stay signed in.
func WithSessionFile(f *SessionFile) Option {
	return func(c *Client) { c.store = f }
}

// New returns a signed-out client.
func New(provider Provider, log *zap.SugaredLogger, opts ...Option) *Client {
	c := &Client{
		provider:  provider,
		log:       log,
		observers: make(map[int]func(*User)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore reloads the persisted session, if any. A token the verifier
// rejects as revoked or invalid signs the user out; an expired token keeps
// the user signed in, since data access does not depend on it.
func (c *Client) Restore(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	sess, err := c.store.Load()
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if c.verifier != nil && sess.IDToken != "" {
		if _, err := c.verifier.VerifyIDToken(ctx, sess.IDToken); err != nil {
			if fbauth.IsIDTokenExpired(err) {
				c.log.Infow("stored ID token expired", "uid", sess.User.UID)
			} else {
				c.log.Warnw("discarding stored session", "uid", sess.User.UID, "error", err)
				if err := c.store.Remove(); err != nil {
					c.log.Warnw("removing stored session", "error", err)
				}
				return nil
			}
		}
	}
	c.set(sess)
	return nil
}

// CurrentUser returns the signed-in user, or nil.
func (c *Client) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	u := c.current.User
	return &u
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) Result {
	if email == "" || password == "" {
		return Result{Err: ErrMissingCredentials}
	}
	return c.complete(c.provider.SignIn(ctx, email, password))
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, email, password string) Result {
	if email == "" || password == "" {
		return Result{Err: ErrMissingCredentials}
	}
	return c.complete(c.provider.SignUp(ctx, email, password))
}

// SignInWithCredential signs in with a federated provider's token.
func (c *Client) SignInWithCredential(ctx context.Context, cred Credential) Result {
	return c.complete(c.provider.SignInWithCredential(ctx, cred))
}

// SignOut clears the session. It always succeeds locally; a failure to
// remove the stored session is logged.
func (c *Client) SignOut() {
	if c.store != nil {
		if err := c.store.Remove(); err != nil {
			c.log.Warnw("removing stored session", "error", err)
		}
	}
	c.set(nil)
}

// OnAuthStateChanged registers fn and calls it immediately with the current
// user, then again after every sign-in or sign-out. The returned func
// unregisters it.
func (c *Client) OnAuthStateChanged(fn func(*User)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = fn
	var u *User
	if c.current != nil {
		cu := c.current.User
		u = &cu
	}
	c.mu.Unlock()

	fn(u)
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

func (c *Client) complete(sess Session, err error) Result {
	if err != nil {
		return Result{Err: err}
	}
	if c.store != nil {
		if err := c.store.Save(sess); err != nil {
			c.log.Warnw("persisting session", "uid", sess.User.UID, "error", err)
		}
	}
	c.set(&sess)
	u := sess.User
	return Result{Success: true, User: &u}
}

func (c *Client) set(sess *Session) {
	c.mu.Lock()
	c.current = sess
	var u *User
	if sess != nil {
		cu := sess.User
		u = &cu
	}
	fns := make([]func(*User), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		if u == nil {
			fn(nil)
			continue
		}
		cu := *u
		fn(&cu)
	}
}
