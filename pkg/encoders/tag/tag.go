// Package tag holds a single event tag (an ordered sequence of strings, at
// least one element) and Tags, an ordered sequence of those.
package tag

// T is one tag: an ordered, non-empty sequence of strings.
type T struct {
	Field []string
}

// New constructs a T from its fields. At least one field is required;
// callers that need to build a tag-constraint key (e.g. "d") pass it as
// Field[0].
func New(field ...string) *T { return &T{Field: field} }

// Len returns the number of fields.
func (t *T) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Field)
}

// Key returns the tag's first field (its name), or "" if empty.
func (t *T) Key() string {
	if t.Len() == 0 {
		return ""
	}
	return t.Field[0]
}

// Value returns the tag's second field (its primary value), or "" if
// absent.
func (t *T) Value() string {
	if t.Len() < 2 {
		return ""
	}
	return t.Field[1]
}

// Tags is an ordered sequence of T.
type Tags struct {
	T []*T
}

// NewTags constructs a Tags from a variadic list of T.
func NewTags(t ...*T) *Tags { return &Tags{T: t} }

// Append adds a tag.
func (ts *Tags) Append(t *T) *Tags {
	ts.T = append(ts.T, t)
	return ts
}

// GetFirst returns the first tag whose Key equals name, or nil.
func (ts *Tags) GetFirst(name string) *T {
	if ts == nil {
		return nil
	}
	for _, t := range ts.T {
		if t.Key() == name {
			return t
		}
	}
	return nil
}

// GetAll returns every tag whose Key equals name.
func (ts *Tags) GetAll(name string) []*T {
	if ts == nil {
		return nil
	}
	var out []*T
	for _, t := range ts.T {
		if t.Key() == name {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of tags.
func (ts *Tags) Len() int {
	if ts == nil {
		return 0
	}
	return len(ts.T)
}

// DValue returns the "d" identifier used by Addressable-kind events: the
// Value of the first "d" tag, or "" if there is none.
func (ts *Tags) DValue() string {
	t := ts.GetFirst("d")
	if t == nil {
		return ""
	}
	return t.Value()
}
