package tenants

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// AllDivisions is the id value selecting every division.
const AllDivisions = "all"

// DivisionID is a division identifier that the UI persists either as a JSON
// number or as a string. It is normalized to its string form.
type DivisionID string

func (d *DivisionID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*d = DivisionID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*d = DivisionID(n.String())
	return nil
}

// MarshalJSON writes integral ids back as numbers.
func (d DivisionID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(d), 10, 64); err == nil {
		return []byte(d), nil
	}
	return json.Marshal(string(d))
}

// IsAll reports whether the id is the "all divisions" marker.
func (d DivisionID) IsAll() bool {
	return strings.EqualFold(string(d), AllDivisions)
}

// IsConcrete reports whether the id names one specific division.
func (d DivisionID) IsConcrete() bool {
	return d != "" && !d.IsAll()
}

func (d DivisionID) String() string {
	return string(d)
}

// Selection is the division currently chosen in the UI, persisted under the
// "selectedDivision" key.
type Selection struct {
	ID             DivisionID `json:"id"`
	Name           string     `json:"name,omitempty"`
	IsAllDivisions bool       `json:"isAllDivisions,omitempty"`
}
