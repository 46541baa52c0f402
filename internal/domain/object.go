package domain

import "strings"

// DefaultFacility holds objects that were stored without naming a facility.
const DefaultFacility = "default"

// Facility returns the trimmed facility name, or DefaultFacility when it is
// blank.
func Facility(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return DefaultFacility
	}
	return name
}

// Object is one designated engineering object from the flat collection. The
// same ID may appear against several codes; RecordID identifies the stored
// row for a single code claim. Every object belongs to one facility, and trees
// are only ever built within a facility.
type Object struct {
	RecordID   int64             `json:"recordId,omitempty"`
	Facility   string            `json:"facility,omitempty"`
	ID         int64             `json:"id"`
	Code       string            `json:"code"`
	ParentCode *string           `json:"parentCode"`
	Name       string            `json:"name"`
	ObjectType string            `json:"objectType"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  string            `json:"createdAt,omitempty"`
	UpdatedAt  string            `json:"updatedAt,omitempty"`

	// Row is the source line the object was read from, 0 when it was not
	// read from a file.
	Row int `json:"-"`
}

// IsRoot reports whether the object declares no parent.
func (o *Object) IsRoot() bool {
	return o.ParentCode == nil
}

// Parent returns the declared parent code, or "" for a root.
func (o *Object) Parent() string {
	if o.ParentCode == nil {
		return ""
	}
	return *o.ParentCode
}

// Clone returns a deep copy of o.
func (o *Object) Clone() Object {
	c := *o
	if o.ParentCode != nil {
		p := *o.ParentCode
		c.ParentCode = &p
	}
	if o.Attributes != nil {
		c.Attributes = make(map[string]string, len(o.Attributes))
		for k, v := range o.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}

// StrPtr returns a pointer to s. It is a convenience for building ParentCode.
func StrPtr(s string) *string {
	return &s
}

// CreateInput holds the data needed to create a new object. A zero ID makes
// the new record its own object.
type CreateInput struct {
	Facility   string            `json:"facility,omitempty"`
	ID         int64             `json:"id,omitempty"`
	Code       string            `json:"code"`
	ParentCode *string           `json:"parentCode"`
	Name       string            `json:"name"`
	ObjectType string            `json:"objectType"`
	Attributes map[string]string `json:"attributes,omitempty"`

	// Row groups the inputs of one batch read from the same source line.
	// Inputs without an ID that share a non-zero Row become claims of a
	// single object.
	Row int `json:"-"`
}

// UpdateInput holds a partial update. Nil fields are left unchanged; a
// ClearParent of true makes the object a root.
type UpdateInput struct {
	ID          *int64            `json:"id,omitempty"`
	Code        *string           `json:"code,omitempty"`
	ParentCode  *string           `json:"parentCode,omitempty"`
	ClearParent bool              `json:"clearParent,omitempty"`
	Name        *string           `json:"name,omitempty"`
	ObjectType  *string           `json:"objectType,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// ListOpts holds the parameters for listing objects. An empty Facility lists
// every facility.
type ListOpts struct {
	Limit    int
	After    string
	Facility string
}

// ObjectPage is a paginated list of objects.
type ObjectPage struct {
	Results []*Object
	After   string
	HasMore bool
}
