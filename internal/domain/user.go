// Package domain contains entity without logic, just meta-data
package domain

import (
	"regexp"
	"strings"
)

const (
	MaxUserIDLen = 36
	MaxLoginLen  = 36
)

type UserID string

// numericUserID matches ids of accounts that can be impersonated by the host.
var numericUserID = regexp.MustCompile(`^[1-9]\d*$`)

type User struct {
	ID              UserID `json:"id"`
	Login           string `json:"login"`
	DisplayName     string `json:"display_name"`
	CountryCode     string `json:"country_code"`
	ProfileImageURL string `json:"profile_image_url"`
	Secret          string `json:"-"`
}

// Owner is the immutable identity of a room owner.
type Owner struct {
	ID    UserID `json:"id"`
	Login string `json:"login"`
}

func (u *User) AsOwner() Owner {
	return Owner{ID: u.ID, Login: u.Login}
}

func (id UserID) Empty() bool { return strings.TrimSpace(string(id)) == "" }

// IsAccountID reports whether id looks like a numeric account id.
func (id UserID) IsAccountID() bool { return numericUserID.MatchString(string(id)) }

// Validate checks the fields a directory must always provide.
func (u *User) Validate() error {
	if u.ID.Empty() || len(u.ID) > MaxUserIDLen {
		return ErrBadUser
	}
	if u.Login == "" || len(u.Login) > MaxLoginLen {
		return ErrBadUser
	}
	return nil
}
