package user

import (
	"encoding/json"
	"fmt"
	"strings"

	userDatamodel "github.com/frahmantamala/school-records/internal/core/datamodel/user"
)

// OrgList accepts either a comma separated string or an array of names.
type OrgList []string

func (o *OrgList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*o = OrgList{}
	case string:
		*o = OrgList(userDatamodel.ParseOrganizations(v))
	case []interface{}:
		names := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("escuelas: expected string, got %T", item)
			}
			names = append(names, s)
		}
		*o = OrgList(userDatamodel.NormalizeOrganizations(names))
	default:
		return fmt.Errorf("escuelas: expected string or array, got %T", raw)
	}
	return nil
}

type CreateUserDTO struct {
	Username      string  `json:"usuario" validate:"notblank,max=100"`
	Password      string  `json:"password" validate:"notblank,max=200"`
	Role          string  `json:"rol"`
	Organizations OrgList `json:"escuelas"`
}

func (d *CreateUserDTO) Normalize() {
	d.Username = strings.TrimSpace(d.Username)
	d.Role = NormalizeRole(d.Role)
}

// UpdateUserDTO is a patch: nil fields keep their stored value. Username is only read
// from the body on the POST /update route.
type UpdateUserDTO struct {
	Username      string   `json:"usuario"`
	Password      *string  `json:"password,omitempty"`
	Role          *string  `json:"rol,omitempty"`
	Organizations *OrgList `json:"escuelas,omitempty"`
}

type ListUsersResponse struct {
	Users []*User `json:"usuarios"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
