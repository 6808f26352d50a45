package cdn

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	needleerrors "github.com/tessro/needle/internal/errors"
	"github.com/tessro/needle/internal/store"
)

// Cookie names of the signed-cookie triple.
const (
	CookiePolicy    = "CloudFront-Policy"
	CookieSignature = "CloudFront-Signature"
	CookieKeyPairID = "CloudFront-Key-Pair-Id"
)

// CookiesKey is the store key holding the installed triple.
const CookiesKey = "signed_cookies"

// SignedCookies is the triple that authorizes manifest and media requests.
type SignedCookies struct {
	Policy    string `json:"CloudFront-Policy"`
	Signature string `json:"CloudFront-Signature"`
	KeyPairID string `json:"CloudFront-Key-Pair-Id"`
}

// Complete reports whether all three values are present.
func (c *SignedCookies) Complete() bool {
	return c != nil && c.Policy != "" && c.Signature != "" && c.KeyPairID != ""
}

// HTTPCookies returns the triple as request cookies.
func (c *SignedCookies) HTTPCookies() []*http.Cookie {
	if !c.Complete() {
		return nil
	}
	return []*http.Cookie{
		{Name: CookiePolicy, Value: c.Policy},
		{Name: CookieSignature, Value: c.Signature},
		{Name: CookieKeyPairID, Value: c.KeyPairID},
	}
}

// Header returns the value of a Cookie header carrying the triple.
func (c *SignedCookies) Header() string {
	parts := make([]string, 0, 3)
	for _, ck := range c.HTTPCookies() {
		parts = append(parts, ck.Name+"="+ck.Value)
	}
	return strings.Join(parts, "; ")
}

type policyDoc struct {
	Statement []struct {
		Resource  string `json:"Resource"`
		Condition struct {
			DateLessThan struct {
				EpochTime int64 `json:"AWS:EpochTime"`
			} `json:"DateLessThan"`
		} `json:"Condition"`
	} `json:"Statement"`
}

var (
	toSafe   = strings.NewReplacer("+", "-", "=", "_", "/", "~")
	fromSafe = strings.NewReplacer("-", "+", "_", "=", "~", "/")
)

// ExpiresAt decodes the policy and returns its DateLessThan bound.
func (c *SignedCookies) ExpiresAt() (time.Time, error) {
	if c == nil || c.Policy == "" {
		return time.Time{}, needleerrors.ErrCookiesMissing
	}
	raw, err := base64.StdEncoding.DecodeString(fromSafe.Replace(c.Policy))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode policy: %w", err)
	}
	var doc policyDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse policy: %w", err)
	}
	if len(doc.Statement) == 0 || doc.Statement[0].Condition.DateLessThan.EpochTime == 0 {
		return time.Time{}, fmt.Errorf("policy has no expiry")
	}
	return time.Unix(doc.Statement[0].Condition.DateLessThan.EpochTime, 0), nil
}

// Valid reports whether the triple is complete and not yet expired.
// A policy without a readable expiry is left for the CDN to judge.
func (c *SignedCookies) Valid(now time.Time) bool {
	if !c.Complete() {
		return false
	}
	exp, err := c.ExpiresAt()
	if err != nil {
		return true
	}
	return now.Before(exp)
}

// EncodePolicy builds a custom policy for resource valid until expires,
// in the CDN's cookie-safe base64.
func EncodePolicy(resource string, expires time.Time) string {
	doc := map[string]any{
		"Statement": []any{
			map[string]any{
				"Resource": resource,
				"Condition": map[string]any{
					"DateLessThan": map[string]any{"AWS:EpochTime": expires.Unix()},
				},
			},
		},
	}
	data, _ := json.Marshal(doc)
	return toSafe.Replace(base64.StdEncoding.EncodeToString(data))
}

// LoadBundle reads a signed-cookie JSON object from path.
func LoadBundle(path string) (*SignedCookies, error) {
	if path == "" {
		return nil, needleerrors.ErrNoBundle
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", needleerrors.ErrNoBundle, path)
		}
		return nil, fmt.Errorf("failed to read cookie bundle: %w", err)
	}

	var c SignedCookies
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse cookie bundle: %w", err)
	}
	if !c.Complete() {
		return nil, fmt.Errorf("%w: bundle is missing a cookie", needleerrors.ErrCookiesMissing)
	}
	return &c, nil
}

// CookieStorage persists the installed triple.
type CookieStorage struct {
	kv store.KV
}

// NewCookieStorage creates storage backed by kv.
func NewCookieStorage(kv store.KV) *CookieStorage {
	return &CookieStorage{kv: kv}
}

// Save installs c.
func (s *CookieStorage) Save(c *SignedCookies) error {
	if !c.Complete() {
		return needleerrors.ErrCookiesMissing
	}
	return store.SetJSON(s.kv, CookiesKey, c)
}

// Load returns the installed triple, or nil if none is installed.
func (s *CookieStorage) Load() (*SignedCookies, error) {
	var c SignedCookies
	ok, err := store.GetJSON(s.kv, CookiesKey, &c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// Delete removes the installed triple.
func (s *CookieStorage) Delete() error {
	return s.kv.Delete(CookiesKey)
}
