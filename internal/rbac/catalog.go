package rbac

import (
	"fmt"
	"sort"
	"strings"
)

// Wildcard is the legacy permission entry granting every permission of the catalog.
const Wildcard = "*"

// Permission is a "<resource>:<action>" permission name.
type Permission string

// String implements fmt.Stringer.
func (p Permission) String() string {
	return string(p)
}

// Resource returns the part before the colon.
func (p Permission) Resource() string {
	resource, _, _ := strings.Cut(string(p), ":")
	return resource
}

// Action returns the part after the colon.
func (p Permission) Action() string {
	_, action, _ := strings.Cut(string(p), ":")
	return action
}

// Definition describes one catalog entry.
type Definition struct {
	Name        Permission `json:"name" yaml:"name" toml:"name"`
	Resource    string     `json:"resource" yaml:"resource" toml:"resource"`
	Action      string     `json:"action" yaml:"action" toml:"action"`
	Description string     `json:"description" yaml:"description" toml:"description"`
}

// Catalog is the immutable set of permissions the system recognizes.
type Catalog struct {
	defs  []Definition
	index map[Permission]int
}

// ParsePermission validates the lowercase "<resource>:<action>" format.
func ParsePermission(s string) (Permission, error) {
	resource, action, ok := strings.Cut(s, ":")
	if !ok || !validPart(resource) || !validPart(action) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPermission, s)
	}

	return Permission(s), nil
}

func validPart(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' && r != '-' && r != '.' {
			return false
		}
	}

	return true
}

// NewCatalog builds a catalog from definitions. Names must be well formed and unique.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[Permission]int, len(defs)),
	}

	for _, d := range defs {
		if _, err := ParsePermission(string(d.Name)); err != nil {
			return nil, err
		}

		if _, dup := c.index[d.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePermission, d.Name)
		}

		d.Resource = d.Name.Resource()
		d.Action = d.Name.Action()
		c.index[d.Name] = len(c.defs)
		c.defs = append(c.defs, d)
	}

	return c, nil
}

// DefaultCatalog returns the catalog of the school-management system.
func DefaultCatalog() *Catalog {
	defs := make([]Definition, 0, 96)

	for _, g := range resourceGroups {
		for _, p := range g.actions {
			defs = append(defs, Definition{
				Name:        p,
				Description: fmt.Sprintf("%s %s", strings.ToUpper(p.Action()[:1])+p.Action()[1:], g.description),
			})
		}
	}

	c, err := NewCatalog(defs...)
	if err != nil {
		panic(err)
	}

	return c
}

// Contains reports whether p is a catalog permission.
func (c *Catalog) Contains(p Permission) bool {
	_, ok := c.index[p]
	return ok
}

// Lookup returns the definition of p.
func (c *Catalog) Lookup(p Permission) (Definition, bool) {
	i, ok := c.index[p]
	if !ok {
		return Definition{}, false
	}

	return c.defs[i], true
}

// All returns the definitions in declaration order.
func (c *Catalog) All() []Definition {
	out := make([]Definition, len(c.defs))
	copy(out, c.defs)

	return out
}

// Names returns all permission names in declaration order.
func (c *Catalog) Names() []Permission {
	out := make([]Permission, 0, len(c.defs))
	for _, d := range c.defs {
		out = append(out, d.Name)
	}

	return out
}

// Len returns the number of permissions in the catalog.
func (c *Catalog) Len() int {
	return len(c.defs)
}

// Expand maps raw permission names to catalog permissions.
// The wildcard expands to the whole catalog; names outside the catalog are returned as unknown.
func (c *Catalog) Expand(names []string) (set map[Permission]struct{}, unknown []string) {
	set = make(map[Permission]struct{}, len(names))

	for _, n := range names {
		if n == Wildcard {
			for _, d := range c.defs {
				set[d.Name] = struct{}{}
			}

			continue
		}

		if p := Permission(n); c.Contains(p) {
			set[p] = struct{}{}
			continue
		}

		unknown = append(unknown, n)
	}

	return set, unknown
}

// Sorted returns the members of a permission set as sorted strings.
func Sorted(set map[Permission]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, string(p))
	}

	sort.Strings(out)

	return out
}
