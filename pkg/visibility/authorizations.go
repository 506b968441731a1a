package visibility

import (
	"sort"
	"strings"
)

// Authorizations is an immutable set of labels held by a reader or writer.
type Authorizations struct {
	set map[string]struct{}
}

// NewAuthorizations builds a set from labels. Empty labels are ignored.
func NewAuthorizations(labels ...string) Authorizations {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if l == "" {
			continue
		}
		set[l] = struct{}{}
	}
	return Authorizations{set: set}
}

// ParseAuthorizations parses a comma-separated label list such as "A,B".
func ParseAuthorizations(s string) Authorizations {
	if strings.TrimSpace(s) == "" {
		return NewAuthorizations()
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return NewAuthorizations(parts...)
}

// Contains reports whether label is in the set.
func (a Authorizations) Contains(label []byte) bool {
	_, ok := a.set[string(label)]
	return ok
}

// Len returns the number of labels.
func (a Authorizations) Len() int {
	return len(a.set)
}

// Labels returns the labels in sorted order.
func (a Authorizations) Labels() []string {
	out := make([]string, 0, len(a.set))
	for l := range a.set {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// String returns the sorted, comma-separated label list.
func (a Authorizations) String() string {
	return strings.Join(a.Labels(), ",")
}
