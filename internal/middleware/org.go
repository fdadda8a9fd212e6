package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gofiber/fiber/v3"
)

// HeaderOrgID carries the caller's organization when bearer tokens are not in use.
const HeaderOrgID = "X-Organization-ID"

// DefaultOrg is used when a request names no organization.
const DefaultOrg = "default-org"

const orgLocalsKey = "org_id"

// ClaimsVerifier checks a raw bearer token and returns its claims.
type ClaimsVerifier interface {
	VerifyClaims(ctx context.Context, rawToken string) (map[string]any, error)
}

// OIDCVerifier verifies ID tokens issued by an OIDC provider.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer and builds a verifier for clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery for %s: %w", issuer, err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// NewStaticOIDCVerifier verifies tokens against a fixed key set, without discovery.
func NewStaticOIDCVerifier(issuer, clientID string, keys oidc.KeySet) *OIDCVerifier {
	return &OIDCVerifier{verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID})}
}

// VerifyClaims validates signature, issuer, audience and expiry.
func (v *OIDCVerifier) VerifyClaims(ctx context.Context, rawToken string) (map[string]any, error) {
	token, err := v.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	return claims, nil
}

// OrgMiddleware resolves the organization every request is billed and rate
// limited against.
type OrgMiddleware struct {
	verifier ClaimsVerifier
	claim    string
}

// NewOrgMiddleware creates the middleware. With a nil verifier the
// organization comes from the X-Organization-ID header.
func NewOrgMiddleware(verifier ClaimsVerifier, claim string) *OrgMiddleware {
	if claim == "" {
		claim = "org_id"
	}
	return &OrgMiddleware{verifier: verifier, claim: claim}
}

// Resolve stores the organization id in the request locals.
func (m *OrgMiddleware) Resolve(c fiber.Ctx) error {
	if m.verifier == nil {
		org := strings.TrimSpace(c.Get(HeaderOrgID))
		if org == "" {
			org = DefaultOrg
		}
		c.Locals(orgLocalsKey, org)
		return c.Next()
	}

	raw, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
	if !ok {
		return unauthorized(c, "Missing bearer token")
	}
	claims, err := m.verifier.VerifyClaims(c.Context(), raw)
	if err != nil {
		slog.Warn("bearer token rejected", "path", c.Path(), "error", err)
		return unauthorized(c, "Invalid bearer token")
	}
	org, _ := claims[m.claim].(string)
	if org == "" {
		return unauthorized(c, "Token has no "+m.claim+" claim")
	}

	c.Locals(orgLocalsKey, org)
	return c.Next()
}

// OrgID returns the organization resolved for the request.
func OrgID(c fiber.Ctx) string {
	if org, ok := c.Locals(orgLocalsKey).(string); ok && org != "" {
		return org
	}
	return DefaultOrg
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}
