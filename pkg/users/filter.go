package users

// Filter restricts the upstream query to one gender.
// The zero value means no filter.
type Filter string

const (
	// FilterNone requests users of any gender.
	FilterNone Filter = ""

	// FilterMale requests male users only.
	FilterMale Filter = "male"

	// FilterFemale requests female users only.
	FilterFemale Filter = "female"
)

// ParseFilter normalizes a raw query value. Anything outside the supported
// set becomes FilterNone and is never sent upstream.
func ParseFilter(raw string) Filter {
	switch f := Filter(raw); f {
	case FilterMale, FilterFemale:
		return f
	default:
		return FilterNone
	}
}

// IsNone reports whether the filter is absent.
func (f Filter) IsNone() bool {
	return f == FilterNone
}

// Label returns the stable name used in cache keys and logs.
func (f Filter) Label() string {
	if f.IsNone() {
		return "all"
	}
	return string(f)
}
