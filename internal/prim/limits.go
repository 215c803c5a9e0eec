package prim

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/prim/internal/dataset"
)

// Limit is the restriction a box places on one attribute. Real and discrete
// attributes use the inclusive interval [Lower, Upper]; categorical attributes
// use the allowed Categories, kept sorted.
type Limit struct {
	Kind       dataset.Kind
	Lower      float64
	Upper      float64
	Categories []string
}

// Interval builds a numeric limit.
func Interval(kind dataset.Kind, lower, upper float64) Limit {
	return Limit{Kind: kind, Lower: lower, Upper: upper}
}

// CategorySet builds a categorical limit allowing the given categories.
func CategorySet(categories ...string) Limit {
	cats := append([]string(nil), categories...)
	sort.Strings(cats)
	return Limit{Kind: dataset.Categorical, Categories: cats}
}

// Contains reports whether a numeric value lies inside the interval.
func (l Limit) Contains(x float64) bool {
	return l.Lower <= x && x <= l.Upper
}

// Allows reports whether the category is in the allowed set.
func (l Limit) Allows(category string) bool {
	i := sort.SearchStrings(l.Categories, category)
	return i < len(l.Categories) && l.Categories[i] == category
}

// Without returns a copy of a categorical limit with one category removed.
func (l Limit) Without(category string) Limit {
	cats := make([]string, 0, len(l.Categories))
	for _, c := range l.Categories {
		if c != category {
			cats = append(cats, c)
		}
	}
	return Limit{Kind: l.Kind, Categories: cats}
}

// Equal compares two limits value by value.
func (l Limit) Equal(o Limit) bool {
	if l.Kind != o.Kind {
		return false
	}
	if l.Kind != dataset.Categorical {
		return l.Lower == o.Lower && l.Upper == o.Upper
	}
	if len(l.Categories) != len(o.Categories) {
		return false
	}
	for i := range l.Categories {
		if l.Categories[i] != o.Categories[i] {
			return false
		}
	}
	return true
}

func (l Limit) String() string {
	if l.Kind == dataset.Categorical {
		return "{" + strings.Join(l.Categories, ", ") + "}"
	}
	return "[" + formatFloat(l.Lower) + ", " + formatFloat(l.Upper) + "]"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// BoxLimits holds one Limit per attribute, in table order. It is a value: every
// modifying method returns a new BoxLimits and leaves the receiver untouched.
type BoxLimits struct {
	names  []string
	limits []Limit
}

// NewBoxLimits pairs attribute names with their limits.
func NewBoxLimits(names []string, limits []Limit) (BoxLimits, error) {
	if len(names) != len(limits) {
		return BoxLimits{}, fmt.Errorf("%d names for %d limits", len(names), len(limits))
	}
	b := BoxLimits{
		names:  append([]string(nil), names...),
		limits: make([]Limit, len(limits)),
	}
	for i, l := range limits {
		b.limits[i] = copyLimit(l)
	}
	return b, nil
}

// Len returns the number of attributes.
func (b BoxLimits) Len() int { return len(b.limits) }

// Name returns the name of the i'th attribute.
func (b BoxLimits) Name(i int) string { return b.names[i] }

// Names returns the attribute names in order.
func (b BoxLimits) Names() []string { return append([]string(nil), b.names...) }

// At returns a copy of the i'th limit.
func (b BoxLimits) At(i int) Limit { return copyLimit(b.limits[i]) }

// Lookup returns the limit for the named attribute.
func (b BoxLimits) Lookup(name string) (Limit, bool) {
	for i, n := range b.names {
		if n == name {
			return b.At(i), true
		}
	}
	return Limit{}, false
}

// With returns a copy of b where the i'th limit is replaced.
func (b BoxLimits) With(i int, l Limit) BoxLimits {
	out := BoxLimits{
		names:  b.names, // never written after construction
		limits: make([]Limit, len(b.limits)),
	}
	copy(out.limits, b.limits)
	out.limits[i] = copyLimit(l)
	return out
}

// Equal reports whether both limit sets cover the same attributes identically.
func (b BoxLimits) Equal(o BoxLimits) bool {
	if len(b.limits) != len(o.limits) {
		return false
	}
	for i := range b.limits {
		if b.names[i] != o.names[i] || !b.limits[i].Equal(o.limits[i]) {
			return false
		}
	}
	return true
}

func (b BoxLimits) String() string {
	parts := make([]string, len(b.limits))
	for i, l := range b.limits {
		parts[i] = b.names[i] + "=" + l.String()
	}
	return strings.Join(parts, " ")
}

type limitJSON struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Lower      *float64 `json:"lower,omitempty"`
	Upper      *float64 `json:"upper,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

// MarshalJSON encodes the limits as an ordered list of per-attribute objects.
func (b BoxLimits) MarshalJSON() ([]byte, error) {
	out := make([]limitJSON, len(b.limits))
	for i, l := range b.limits {
		entry := limitJSON{Name: b.names[i], Kind: l.Kind.String()}
		if l.Kind == dataset.Categorical {
			entry.Categories = append([]string{}, l.Categories...)
		} else {
			lower, upper := l.Lower, l.Upper
			entry.Lower, entry.Upper = &lower, &upper
		}
		out[i] = entry
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (b *BoxLimits) UnmarshalJSON(data []byte) error {
	var in []limitJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	names := make([]string, len(in))
	limits := make([]Limit, len(in))
	for i, entry := range in {
		kind, err := dataset.ParseKind(entry.Kind)
		if err != nil {
			return fmt.Errorf("limit %q: %w", entry.Name, err)
		}
		names[i] = entry.Name
		if kind == dataset.Categorical {
			limits[i] = CategorySet(entry.Categories...)
			continue
		}
		if entry.Lower == nil || entry.Upper == nil {
			return fmt.Errorf("limit %q: numeric limit needs lower and upper", entry.Name)
		}
		limits[i] = Interval(kind, *entry.Lower, *entry.Upper)
	}
	decoded, err := NewBoxLimits(names, limits)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

func copyLimit(l Limit) Limit {
	if l.Categories != nil {
		l.Categories = append([]string(nil), l.Categories...)
	}
	return l
}
