// Package user maps rows of the usuarios table.
package user

import "strings"

const TableName = "usuarios"

const (
	ColUsername = iota
	ColPassword
	ColOrganizations
	ColRole
)

var Headers = []string{"Usuario", "Password", "Escuelas", "Rol"}

// User is one row of the usuarios table. Password holds either a bcrypt hash or, for
// rows written before hashing was enabled, the plaintext.
type User struct {
	Row           int
	Username      string
	Password      string
	Organizations []string
	Role          string
}

func FromRow(rowNum int, cells []string) *User {
	return &User{
		Row:           rowNum,
		Username:      cell(cells, ColUsername),
		Password:      rawCell(cells, ColPassword),
		Organizations: ParseOrganizations(cell(cells, ColOrganizations)),
		Role:          strings.ToLower(cell(cells, ColRole)),
	}
}

func (u *User) ToRow() []string {
	row := make([]string, len(Headers))
	row[ColUsername] = u.Username
	row[ColPassword] = u.Password
	row[ColOrganizations] = JoinOrganizations(u.Organizations)
	row[ColRole] = u.Role
	return row
}

// ParseOrganizations splits a comma separated list, trimming entries, dropping blanks
// and keeping the first occurrence of each name.
func ParseOrganizations(raw string) []string {
	return NormalizeOrganizations(strings.Split(raw, ","))
}

func NormalizeOrganizations(names []string) []string {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func JoinOrganizations(names []string) string {
	return strings.Join(NormalizeOrganizations(names), ",")
}

func cell(cells []string, i int) string {
	return strings.TrimSpace(rawCell(cells, i))
}

func rawCell(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
