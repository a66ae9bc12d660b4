package authroles

import (
	domainauth "github.com/marioigor1982/leco-imoveis-site-simples/internal/domain/auth"
)

// StaticRoleMapper maps sessions to roles by a fixed administrator address.
// Break-glass sessions are administrators; other authorized sessions are agents.
type StaticRoleMapper struct {
	AdminEmail string
}

func (m StaticRoleMapper) Map(sess *domainauth.Session, decision domainauth.Decision) domainauth.Role {
	if sess == nil || !decision.Authorized() {
		return domainauth.RoleGuest
	}
	if sess.IsOverride() {
		return domainauth.RoleAdmin
	}
	if m.AdminEmail != "" && sess.Email == m.AdminEmail {
		return domainauth.RoleAdmin
	}
	return domainauth.RoleAgent
}
