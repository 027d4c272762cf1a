package domain

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

func IsValidRole(r string) bool {
	switch Role(r) {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}
