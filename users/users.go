package users

import (
	"encoding/json"
	"strings"
)

// nameFields are the object keys, in priority order, that carry a role name
// when a role is serialized as an object rather than a plain string.
var nameFields = []string{"name", "roleName", "role_name", "role", "title"}

// RoleDescriptor is a role as delivered by the backend: either a plain role
// name or an object exposing a name-like field.
type RoleDescriptor struct {
	Name string
}

func (r *RoleDescriptor) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		r.Name = name
		return nil
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	r.Name = ""
	for _, f := range nameFields {
		if s, ok := obj[f].(string); ok && s != "" {
			r.Name = s
			return nil
		}
	}
	return nil
}

func (r RoleDescriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Name)
}

// Roles builds descriptors from plain role names.
func Roles(names ...string) []RoleDescriptor {
	out := make([]RoleDescriptor, 0, len(names))
	for _, n := range names {
		out = append(out, RoleDescriptor{Name: n})
	}
	return out
}

// Actor is the logged-in user as persisted under the "user" key. Only the
// role set matters to the session core; the remaining profile is carried
// through untouched.
type Actor struct {
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name,omitempty"`
	Email   string           `json:"email,omitempty"`
	Roles   []RoleDescriptor `json:"roles"`
	Profile map[string]any   `json:"-"`
}

// RoleNames returns the non-empty role names of the actor.
func (a Actor) RoleNames() []string {
	names := make([]string, 0, len(a.Roles))
	for _, r := range a.Roles {
		if n := strings.TrimSpace(r.Name); n != "" {
			names = append(names, n)
		}
	}
	return names
}
