package user

import (
	"strings"

	"github.com/frahmantamala/school-records/internal"
	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
)

// User is an account of the usuarios table. The password never leaves the service.
type User struct {
	Row           int      `json:"-"`
	Username      string   `json:"usuario"`
	Password      string   `json:"-"`
	Role          string   `json:"rol"`
	Organizations []string `json:"escuelas"`
}

func (u *User) IsAdmin() bool {
	return u.Role == internal.RoleAdmin
}

// Identity is what gets stored in the session for this user.
func (u *User) Identity() *internal.Identity {
	orgs := make([]string, len(u.Organizations))
	copy(orgs, u.Organizations)
	return &internal.Identity{
		Username:      u.Username,
		Role:          u.Role,
		Organizations: orgs,
	}
}

func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return internal.RoleUser
	}
	return role
}

func ValidRole(role string) bool {
	return role == internal.RoleAdmin || role == internal.RoleUser
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		Row:           u.Row,
		Username:      u.Username,
		Password:      u.Password,
		Organizations: u.Organizations,
		Role:          u.Role,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	orgs := u.Organizations
	if orgs == nil {
		orgs = []string{}
	}
	return &User{
		Row:           u.Row,
		Username:      u.Username,
		Password:      u.Password,
		Role:          NormalizeRole(u.Role),
		Organizations: orgs,
	}
}
