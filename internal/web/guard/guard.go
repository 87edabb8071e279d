// Package guard authorizes every API request before it reaches a handler.
//
// Requests pass through, in order: the public allow-list, the principal check,
// the superadmin gate, the route table and finally the permission resolver.
// Every failure after the public allow-list ends the request with 401 or 403;
// nothing fails open.
package guard

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/rbac"
	"github.com/AfnanDevsSoft/StudentManagementSystem-sub007/internal/web/session"
)

const (
	// DefaultBranchHeader carries the branch a request operates against.
	DefaultBranchHeader = "X-Branch-ID"

	// LocalsSnapshot holds the *rbac.Snapshot of the request's principal.
	LocalsSnapshot = "rbac_snapshot"
	// LocalsBranch holds the branch context of the request.
	LocalsBranch = "rbac_branch"
)

var (
	// ErrInvalidPattern is returned for malformed path patterns.
	ErrInvalidPattern = errors.New("invalid route pattern")
	// ErrInvalidMethod is returned for unsupported HTTP methods in the route table.
	ErrInvalidMethod = errors.New("invalid route method")
	// ErrDuplicateRoute is returned when the route table maps a method and pattern twice.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrNoResolver is returned when the guard is created without resolver.
	ErrNoResolver = errors.New("guard needs a resolver")
)

// Config configures the guard.
type Config struct {
	Resolver   *rbac.Resolver
	Routes     []Route
	Public     []Rule
	Superadmin []Rule
	// BranchHeader defaults to DefaultBranchHeader.
	BranchHeader string
}

type compiledRoute struct {
	method     string
	pattern    pattern
	permission rbac.Permission
}

type compiledRule struct {
	methods []string
	pattern pattern
}

func (r compiledRule) match(method, path string) bool {
	if len(r.methods) > 0 && !slices.Contains(r.methods, method) {
		return false
	}

	return r.pattern.match(path)
}

var validMethods = []string{ //nolint:gochecknoglobals
	fiber.MethodGet, fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch, fiber.MethodDelete,
}

// ValidateRoutes checks that every route references a catalog permission, uses a
// supported method and a well-formed pattern, and is mapped only once.
func ValidateRoutes(catalog *rbac.Catalog, routes []Route) error {
	_, err := compileRoutes(catalog, routes)
	return err
}

func compileRoutes(catalog *rbac.Catalog, routes []Route) ([]compiledRoute, error) {
	var (
		errs []error
		out  = make([]compiledRoute, 0, len(routes))
		seen = make(map[string]struct{}, len(routes))
	)

	for _, r := range routes {
		key := r.Method + " " + r.Pattern

		if !slices.Contains(validMethods, r.Method) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidMethod, key))
			continue
		}

		if !catalog.Contains(r.Permission) {
			errs = append(errs, fmt.Errorf("%w: %s requires %q", rbac.ErrUnknownPermission, key, r.Permission))
			continue
		}

		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateRoute, key))
			continue
		}

		seen[key] = struct{}{}

		p, err := compile(r.Pattern)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		out = append(out, compiledRoute{method: r.Method, pattern: p, permission: r.Permission})
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return out, nil
}

func compileRules(rules []Rule) ([]compiledRule, error) {
	out := make([]compiledRule, 0, len(rules))

	for _, r := range rules {
		p, err := compile(r.Pattern)
		if err != nil {
			return nil, err
		}

		out = append(out, compiledRule{methods: r.Methods, pattern: p})
	}

	return out, nil
}

type guard struct {
	resolver     *rbac.Resolver
	routes       []compiledRoute
	public       []compiledRule
	superadmin   []compiledRule
	branchHeader string
}

// New validates the configuration and returns the guard middleware.
func New(cfg Config) (fiber.Handler, error) {
	if cfg.Resolver == nil {
		return nil, ErrNoResolver
	}

	routes, err := compileRoutes(cfg.Resolver.Catalog(), cfg.Routes)
	if err != nil {
		return nil, err
	}

	public, err := compileRules(cfg.Public)
	if err != nil {
		return nil, err
	}

	superadmin, err := compileRules(cfg.Superadmin)
	if err != nil {
		return nil, err
	}

	g := &guard{
		resolver:     cfg.Resolver,
		routes:       routes,
		public:       public,
		superadmin:   superadmin,
		branchHeader: cfg.BranchHeader,
	}
	if g.branchHeader == "" {
		g.branchHeader = DefaultBranchHeader
	}

	return g.handle, nil
}

// Forbidden writes the denial response. It names no role or permission.
func Forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
}

// lookupMethod folds HEAD into GET, the way fiber routes it.
func lookupMethod(c *fiber.Ctx) string {
	if m := c.Method(); m != fiber.MethodHead {
		return m
	}

	return fiber.MethodGet
}

func (g *guard) permissionFor(method, path string) (rbac.Permission, bool) {
	for _, r := range g.routes {
		if r.method == method && r.pattern.match(path) {
			return r.permission, true
		}
	}

	return "", false
}

func (g *guard) handle(c *fiber.Ctx) error {
	method := lookupMethod(c)
	path := c.Path()

	for _, r := range g.public {
		if r.match(method, path) {
			return c.Next()
		}
	}

	principal, ok := session.FromContext(c)
	if !ok {
		return unauthorized(c)
	}

	branch := strings.TrimSpace(c.Get(g.branchHeader))
	if branch == "" {
		branch = principal.HomeBranchID
	}

	snap, err := g.resolver.Load(c.UserContext(), principal.UserID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", principal.UserID).Str("path", path).
			Msg("authorization failed, denying request")

		return Forbidden(c)
	}

	c.Locals(LocalsSnapshot, snap)
	c.Locals(LocalsBranch, branch)

	for _, r := range g.superadmin {
		if !r.match(method, path) {
			continue
		}

		if !snap.Superadmin() {
			log.Warn().Uint64("user_id", principal.UserID).Str("method", method).Str("path", path).
				Msg("superadmin route denied")

			return Forbidden(c)
		}

		return c.Next()
	}

	permission, ok := g.permissionFor(method, path)
	if !ok {
		log.Warn().Str("method", method).Str("path", path).Msg("no permission mapped for route, denying request")
		return Forbidden(c)
	}

	decision := snap.Decide(permission, branch)
	if !decision.Allowed {
		log.Debug().Uint64("user_id", principal.UserID).Str("legacy_role", snap.LegacyRoleName()).
			Str("permission", string(permission)).Str("branch", branch).Str("reason", string(decision.Reason)).
			Msg("permission denied")

		return Forbidden(c)
	}

	return c.Next()
}

// SnapshotFromContext returns the snapshot loaded by the guard for this request.
func SnapshotFromContext(c *fiber.Ctx) (*rbac.Snapshot, bool) {
	snap, ok := c.Locals(LocalsSnapshot).(*rbac.Snapshot)
	return snap, ok
}

// BranchFromContext returns the branch context the guard resolved for this request.
func BranchFromContext(c *fiber.Ctx) string {
	branch, _ := c.Locals(LocalsBranch).(string)
	return branch
}
