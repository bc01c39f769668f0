package identity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// DefaultCookieName holds the session.
const DefaultCookieName = "rosteriq-auth-token"

// CodeVerifierCookie holds the PKCE verifier between redirect and callback.
const CodeVerifierCookie = "rosteriq-code-verifier"

const (
	base64Prefix = "base64-"
	// maxChunkSize keeps every chunk, including its name and attributes, under
	// the 4096-byte browser limit.
	maxChunkSize = 3180
)

// CookieStore is the narrow cookie surface the resolver needs. Implementations
// read cookies from the incoming request and make written cookies visible both
// to the client (Set-Cookie) and to downstream handlers of the same request.
type CookieStore interface {
	ReadAll() []*http.Cookie
	WriteAll(cookies []*http.Cookie)
}

// CookieOptions are the attributes applied to session cookies.
type CookieOptions struct {
	Name   string
	Path   string
	Domain string
	Secure bool
	// MaxAge in seconds; 0 uses a 400-day lifetime.
	MaxAge int
}

func (o CookieOptions) withDefaults() CookieOptions {
	if o.Name == "" {
		o.Name = DefaultCookieName
	}
	if o.Path == "" {
		o.Path = "/"
	}
	if o.MaxAge == 0 {
		o.MaxAge = 400 * 24 * 60 * 60
	}
	return o
}

func (o CookieOptions) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

var errMalformedSession = errors.New("malformed session cookie")

// EncodeSession serialises s into one cookie, or numbered chunks when large.
// existing is the request's cookies; stale chunks of the other layout are expired.
// POST: Every returned cookie carries opts' attributes
func EncodeSession(s Session, opts CookieOptions, existing []*http.Cookie) ([]*http.Cookie, error) {
	opts = opts.withDefaults()
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	value := base64Prefix + base64.RawURLEncoding.EncodeToString(raw)

	var out []*http.Cookie
	written := map[string]bool{}
	if len(value) <= maxChunkSize {
		out = append(out, opts.cookie(opts.Name, value, opts.MaxAge))
		written[opts.Name] = true
	} else {
		for i := 0; len(value) > 0; i++ {
			n := min(maxChunkSize, len(value))
			name := opts.Name + "." + strconv.Itoa(i)
			out = append(out, opts.cookie(name, value[:n], opts.MaxAge))
			written[name] = true
			value = value[n:]
		}
	}

	for _, c := range sessionCookies(opts.Name, existing) {
		if !written[c.Name] {
			out = append(out, opts.cookie(c.Name, "", -1))
		}
	}
	return out, nil
}

// ClearSession expires every session cookie (plain and chunked) present in existing.
// The plain cookie is always expired so a logout works without a request cookie.
func ClearSession(opts CookieOptions, existing []*http.Cookie) []*http.Cookie {
	opts = opts.withDefaults()
	out := []*http.Cookie{opts.cookie(opts.Name, "", -1)}
	for _, c := range sessionCookies(opts.Name, existing) {
		if c.Name != opts.Name {
			out = append(out, opts.cookie(c.Name, "", -1))
		}
	}
	return out
}

// DecodeSession reconstructs the session carried by cookies.
// POST: ok is false when no session cookie is present; err is non-nil when
// one is present but cannot be decoded
func DecodeSession(name string, cookies []*http.Cookie) (s Session, ok bool, err error) {
	if name == "" {
		name = DefaultCookieName
	}
	value, found := joinSessionValue(name, cookies)
	if !found {
		return Session{}, false, nil
	}

	var raw []byte
	if rest, isB64 := strings.CutPrefix(value, base64Prefix); isB64 {
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(rest, "="))
		if err != nil {
			return Session{}, true, errMalformedSession
		}
	} else {
		raw = []byte(value)
	}

	if err := json.Unmarshal(raw, &s); err != nil || s.AccessToken == "" {
		return Session{}, true, errMalformedSession
	}
	return s, true, nil
}

// joinSessionValue prefers the plain cookie and otherwise concatenates
// contiguous chunks name.0, name.1, ...
func joinSessionValue(name string, cookies []*http.Cookie) (string, bool) {
	chunks := map[int]string{}
	for _, c := range cookies {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
		if idx, ok := chunkIndex(name, c.Name); ok {
			chunks[idx] = c.Value
		}
	}
	if len(chunks) == 0 {
		return "", false
	}
	var b strings.Builder
	for i := 0; ; i++ {
		part, ok := chunks[i]
		if !ok {
			break
		}
		b.WriteString(part)
	}
	if b.Len() == 0 {
		return "", false
	}
	return b.String(), true
}

// sessionCookies returns the plain and chunked session cookies in existing, sorted by name.
func sessionCookies(name string, existing []*http.Cookie) []*http.Cookie {
	var out []*http.Cookie
	for _, c := range existing {
		if c.Name == name {
			out = append(out, c)
			continue
		}
		if _, ok := chunkIndex(name, c.Name); ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func chunkIndex(name, cookieName string) (int, bool) {
	suffix, ok := strings.CutPrefix(cookieName, name+".")
	if !ok {
		return 0, false
	}
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}
