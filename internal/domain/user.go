package domain

import "time"

type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	DateOfBirth  *time.Time
	PasswordHash string
	Roles        []string
	Enabled      bool
	Locked       bool
	CreatedAt    time.Time
}

func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}
