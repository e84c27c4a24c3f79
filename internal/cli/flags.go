package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/spf13/pflag"
)

// enumValue is a string flag restricted to a fixed set of values.
type enumValue struct {
	target  *string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(target *string, def string, allowed ...string) *enumValue {
	*target = def
	return &enumValue{target: target, allowed: allowed}
}

func (e *enumValue) String() string { return *e.target }

func (e *enumValue) Set(s string) error {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	for _, a := range e.allowed {
		if s == a {
			*e.target = s
			return nil
		}
	}
	return fmt.Errorf("must be one of %s", strings.Join(e.allowed, "|"))
}

func (e *enumValue) Type() string { return "string" }

// roleValue binds --role directly to an actor's role.
type roleValue struct {
	target *domain.ActorRole
}

var _ pflag.Value = (*roleValue)(nil)

var validRoles = map[string]bool{
	string(domain.RoleAdmin):   true,
	string(domain.RoleManager): true,
	string(domain.RoleStaff):   true,
	string(domain.RoleClient):  true,
}

func newRoleValue(target *domain.ActorRole) *roleValue {
	return &roleValue{target: target}
}

func (r *roleValue) String() string { return string(*r.target) }

func (r *roleValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !validRoles[s] {
		return fmt.Errorf("must be one of %s", strings.Join(sortedKeys(validRoles), "|"))
	}
	*r.target = domain.ActorRole(s)
	return nil
}

func (r *roleValue) Type() string { return "role" }

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
