// Package api implements HTTP handlers and helpers for the ispnet service.
package api

import (
	"net/http"
	"strings"
)

const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
	RoleSales    = "sales"
)

type Principal struct {
	Tenant string
	Role   string // admin, operator, sales
}

// getPrincipal extracts tenant and role from headers. Token verification
// happens in the gateway in front of this service.
func (s *Server) getPrincipal(r *http.Request) Principal {
	_, tenant := s.withTenant(r)
	role := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Role")))
	if role == "" {
		role = RoleAdmin
	}
	return Principal{Tenant: tenant, Role: role}
}

// IsAdmin reports whether the principal has the admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanComputePaths is true for network staff.
func (p Principal) CanComputePaths() bool { return p.IsAdmin() || p.Role == RoleOperator }
