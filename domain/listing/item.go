// Package listing holds the in-memory collection model of the console: the
// normalized list item, the filter state of a page, and the pure filter, sort
// and paginate operations over a loaded collection.
package listing

import (
	"strconv"
	"time"

	"duoadmin/domain/entity"
	"duoadmin/domain/status"
)

// Item is one normalized row of a managed collection.
//
// Item is treated as a value: operations that change it return a copy. Fields
// holds every text field by its list-view name, Numbers every numeric field and
// Times every timestamp that could be parsed. Raw keeps the upstream record for
// the detail view.
type Item struct {
	ID        string
	Entity    entity.Entity
	StatusRaw string
	Status    status.Label
	Fields    map[string]string
	Numbers   map[string]float64
	Times     map[string]time.Time
	Roles     []string
	Raw       []byte
}

// Field returns the text value of name. "id" and "status" resolve to the
// identity and raw status; missing fields read as "".
func (i Item) Field(name string) string {
	switch name {
	case "id":
		return i.ID
	case "status":
		return i.StatusRaw
	}
	if v, ok := i.Fields[name]; ok {
		return v
	}
	if n, ok := i.Numbers[name]; ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// Number returns the numeric value of name.
func (i Item) Number(name string) (float64, bool) {
	if name == "id" {
		n, err := strconv.ParseFloat(i.ID, 64)
		return n, err == nil
	}
	n, ok := i.Numbers[name]
	return n, ok
}

// Time returns the timestamp of name.
func (i Item) Time(name string) (time.Time, bool) {
	t, ok := i.Times[name]
	return t, ok
}

// Clone returns a deep copy of i. Raw is shared; it is never written.
func (i Item) Clone() Item {
	c := i
	if i.Fields != nil {
		c.Fields = make(map[string]string, len(i.Fields))
		for k, v := range i.Fields {
			c.Fields[k] = v
		}
	}
	if i.Numbers != nil {
		c.Numbers = make(map[string]float64, len(i.Numbers))
		for k, v := range i.Numbers {
			c.Numbers[k] = v
		}
	}
	if i.Times != nil {
		c.Times = make(map[string]time.Time, len(i.Times))
		for k, v := range i.Times {
			c.Times[k] = v
		}
	}
	if i.Roles != nil {
		c.Roles = append([]string(nil), i.Roles...)
	}
	return c
}

// WithStatus returns a copy of i carrying raw as its status, resolved again.
func (i Item) WithStatus(raw string) Item {
	c := i.Clone()
	c.StatusRaw = raw
	c.Status = status.Resolve(i.Entity, raw)
	return c
}

// WithFields returns a copy of i with the given text fields overwritten.
func (i Item) WithFields(fields map[string]string) Item {
	c := i.Clone()
	if c.Fields == nil {
		c.Fields = make(map[string]string, len(fields))
	}
	for k, v := range fields {
		c.Fields[k] = v
	}
	return c
}

// WithRoles returns a copy of i holding roles; the "role" field follows the
// first role.
func (i Item) WithRoles(roles []string) Item {
	c := i.Clone()
	c.Roles = append([]string(nil), roles...)
	if c.Fields == nil {
		c.Fields = map[string]string{}
	}
	if len(roles) > 0 {
		c.Fields["role"] = roles[0]
	}
	return c
}

// View is the JSON shape of an item in list responses.
type View struct {
	ID          string             `json:"id"`
	Status      string             `json:"status"`
	StatusLabel status.Label       `json:"statusLabel"`
	Fields      map[string]string  `json:"fields"`
	Numbers     map[string]float64 `json:"numbers,omitempty"`
	Times       map[string]string  `json:"times,omitempty"`
	Roles       []string           `json:"roles,omitempty"`
	RoleLabels  []status.Label     `json:"roleLabels,omitempty"`
}

// ToView renders i for a list response. Users get one badge per role.
func (i Item) ToView() View {
	v := View{
		ID:          i.ID,
		Status:      i.StatusRaw,
		StatusLabel: i.Status,
		Fields:      i.Fields,
		Numbers:     i.Numbers,
		Roles:       i.Roles,
	}
	if v.Fields == nil {
		v.Fields = map[string]string{}
	}
	if i.Entity == entity.User {
		roles := i.Roles
		if len(roles) == 0 {
			roles = []string{i.Field("role")}
		}
		v.RoleLabels = make([]status.Label, len(roles))
		for k, r := range roles {
			v.RoleLabels[k] = status.ResolveRole(r)
		}
	}
	if len(i.Times) > 0 {
		v.Times = make(map[string]string, len(i.Times))
		for k, t := range i.Times {
			v.Times[k] = t.Format(time.RFC3339)
		}
	}
	return v
}
