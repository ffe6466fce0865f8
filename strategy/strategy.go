package strategy

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Kind tags a credential variant.
type Kind int

const (
	// KindLocal is an email/password pair for Engine.SignIn.
	KindLocal Kind = iota
	// KindAccess is a bearer access token for Engine.Validate.
	KindAccess
	// KindRefresh is a refresh token for Engine.Refresh or Revoke.
	KindRefresh
	// KindProvider is an externally asserted identity for
	// Engine.ProviderLogin.
	KindProvider
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindAccess:
		return "access"
	case KindRefresh:
		return "refresh"
	case KindProvider:
		return "provider"
	default:
		return "unknown"
	}
}

// ErrNoCredential is returned when the request carries nothing the
// extractor recognizes.
var ErrNoCredential = errors.New("no credential in request")

// ErrMalformedCredential is returned when a credential is present but
// unreadable.
var ErrMalformedCredential = errors.New("malformed credential")

// Credential is the extracted, not yet verified, material. Fields
// outside the tagged kind are zero.
type Credential struct {
	Kind Kind

	// KindLocal
	Email    string
	Password string

	// KindAccess, KindRefresh
	Token string

	// KindProvider
	Provider    string
	Subject     string
	DisplayName string
}

// Extractor pulls one credential kind out of a request. Construct
// through Local, Access, or Refresh; the zero value extracts nothing.
type Extractor struct {
	kind          Kind
	cookieName    string
	allowBearer   bool
	providerName  string
	configuredSet bool
}

// Local extracts an email/password pair from a JSON request body.
func Local() Extractor {
	return Extractor{kind: KindLocal, configuredSet: true}
}

// Access extracts an access token from the Authorization header and,
// when cookieName is non-empty, falls back to that cookie.
func Access(cookieName string) Extractor {
	return Extractor{
		kind:          KindAccess,
		cookieName:    cookieName,
		allowBearer:   true,
		configuredSet: true,
	}
}

// Refresh extracts a refresh token from the named cookie. Refresh
// tokens ride cookies rather than headers so browser scripts never
// touch them.
func Refresh(cookieName string) Extractor {
	return Extractor{
		kind:          KindRefresh,
		cookieName:    cookieName,
		configuredSet: true,
	}
}

// Provider extracts an externally verified profile the host placed in
// request headers after completing the provider's own flow.
func Provider(name string) Extractor {
	return Extractor{
		kind:          KindProvider,
		providerName:  name,
		configuredSet: true,
	}
}

// Kind reports which credential variant this extractor produces.
func (e Extractor) Kind() Kind {
	return e.kind
}

// Extract reads the credential from r. The request body is consumed
// only by KindLocal.
func (e Extractor) Extract(r *http.Request) (Credential, error) {
	if !e.configuredSet {
		return Credential{}, ErrNoCredential
	}

	switch e.kind {
	case KindLocal:
		return extractLocal(r)
	case KindAccess:
		return e.extractAccess(r)
	case KindRefresh:
		return e.extractCookieToken(r, KindRefresh)
	case KindProvider:
		return e.extractProvider(r)
	default:
		return Credential{}, ErrNoCredential
	}
}

func extractLocal(r *http.Request) (Credential, error) {
	if r.Body == nil {
		return Credential{}, ErrNoCredential
	}

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return Credential{}, ErrMalformedCredential
	}
	if body.Email == "" || body.Password == "" {
		return Credential{}, ErrNoCredential
	}

	return Credential{
		Kind:     KindLocal,
		Email:    body.Email,
		Password: body.Password,
	}, nil
}

func (e Extractor) extractAccess(r *http.Request) (Credential, error) {
	if e.allowBearer {
		if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
			return Credential{Kind: KindAccess, Token: token}, nil
		}
	}
	return e.extractCookieToken(r, KindAccess)
}

func (e Extractor) extractCookieToken(r *http.Request, kind Kind) (Credential, error) {
	if e.cookieName == "" {
		return Credential{}, ErrNoCredential
	}

	cookie, err := r.Cookie(e.cookieName)
	if err != nil || cookie.Value == "" {
		return Credential{}, ErrNoCredential
	}

	return Credential{Kind: kind, Token: cookie.Value}, nil
}

func (e Extractor) extractProvider(r *http.Request) (Credential, error) {
	subject := r.Header.Get("X-Provider-Subject")
	if subject == "" {
		return Credential{}, ErrNoCredential
	}

	return Credential{
		Kind:        KindProvider,
		Provider:    e.providerName,
		Subject:     subject,
		Email:       r.Header.Get("X-Provider-Email"),
		DisplayName: r.Header.Get("X-Provider-Name"),
	}, nil
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
