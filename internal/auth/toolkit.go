package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// ErrNoAPIKey is returned when the identity provider has no web API key.
var ErrNoAPIKey = errors.New("sign-in is not configured: set firebase.api_key")

// Friendly text for the provider's error codes. Unknown codes pass through.
var toolkitMessages = map[string]string{
	"EMAIL_NOT_FOUND":             "no account exists for that email",
	"INVALID_PASSWORD":            "the password is incorrect",
	"INVALID_LOGIN_CREDENTIALS":   "the email or password is incorrect",
	"INVALID_EMAIL":               "the email address is badly formatted",
	"EMAIL_EXISTS":                "an account already exists for that email",
	"USER_DISABLED":               "this account has been disabled",
	"TOO_MANY_ATTEMPTS_TRY_LATER": "too many attempts, try again later",
	"INVALID_IDP_RESPONSE":        "the identity provider's credential was rejected",
}

// Toolkit is a Provider backed by the Identity Toolkit relying-party API.
type Toolkit struct {
	svc *identitytoolkit.Service
	// RequestURI is sent with federated sign-ins.
	RequestURI string
}

// NewToolkit creates a provider authenticated by the project's web API key.
// Extra options are appended, for example an endpoint override in tests.
func NewToolkit(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Toolkit, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating identity toolkit client: %w", err)
	}
	return &Toolkit{svc: svc, RequestURI: "http://localhost"}, nil
}

func (t *Toolkit) SignIn(ctx context.Context, email, password string) (Session, error) {
	resp, err := t.svc.Relyingparty.VerifyPassword(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyPasswordRequest{
		Email:             email,
		Password:          password,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Session{}, providerError(err)
	}
	return Session{
		User: User{
			UID:         resp.LocalId,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			ProviderID:  "password",
		},
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (t *Toolkit) SignUp(ctx context.Context, email, password string) (Session, error) {
	resp, err := t.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:    email,
		Password: password,
	}).Context(ctx).Do()
	if err != nil {
		return Session{}, providerError(err)
	}
	return Session{
		User: User{
			UID:         resp.LocalId,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			ProviderID:  "password",
		},
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

func (t *Toolkit) SignInWithCredential(ctx context.Context, cred Credential) (Session, error) {
	body, err := assertionBody(cred)
	if err != nil {
		return Session{}, err
	}
	resp, err := t.svc.Relyingparty.VerifyAssertion(&identitytoolkit.IdentitytoolkitRelyingpartyVerifyAssertionRequest{
		PostBody:          body,
		RequestUri:        t.RequestURI,
		ReturnSecureToken: true,
	}).Context(ctx).Do()
	if err != nil {
		return Session{}, providerError(err)
	}
	if resp.ErrorMessage != "" {
		return Session{}, errors.New(friendly(resp.ErrorMessage))
	}
	return Session{
		User: User{
			UID:         resp.LocalId,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			ProviderID:  cred.ProviderID,
		},
		IDToken:      resp.IdToken,
		RefreshToken: resp.RefreshToken,
	}, nil
}

// assertionBody encodes a federated credential the way the relying-party
// API expects it.
func assertionBody(cred Credential) (string, error) {
	switch cred.ProviderID {
	case ProviderGoogle, ProviderApple:
	default:
		return "", fmt.Errorf("unsupported identity provider %q", cred.ProviderID)
	}
	if cred.IDToken == "" && cred.AccessToken == "" {
		return "", errors.New("credential has no token")
	}
	v := url.Values{}
	v.Set("providerId", cred.ProviderID)
	if cred.IDToken != "" {
		v.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		v.Set("access_token", cred.AccessToken)
	}
	return v.Encode(), nil
}

func providerError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Message != "" {
		return errors.New(friendly(gerr.Message))
	}
	return err
}

// friendly maps codes like "WEAK_PASSWORD : Password should be at least 6
// characters" to readable text.
func friendly(msg string) string {
	code, detail, _ := strings.Cut(msg, ":")
	code = strings.TrimSpace(code)
	if text, ok := toolkitMessages[code]; ok {
		return text
	}
	if detail = strings.TrimSpace(detail); detail != "" {
		return detail
	}
	return msg
}
