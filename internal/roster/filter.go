package roster

import (
	"strings"

	"github.com/youruser/lanyard/internal/identity"
)

// FilterOptions narrows a roster. Zero values match everything.
type FilterOptions struct {
	Variants  []identity.Variant
	FreeWords string
}

// Filter keeps attendees of one of the variants whose name contains every
// free word, case-insensitively.
func Filter(attendees []Attendee, opt FilterOptions) []Attendee {
	words := strings.Fields(strings.ToLower(opt.FreeWords))
	var out []Attendee
	for _, a := range attendees {
		if len(opt.Variants) > 0 && !hasVariant(opt.Variants, a.Variant) {
			continue
		}
		name := strings.ToLower(a.Name)
		ok := true
		for _, w := range words {
			if !strings.Contains(name, w) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, a)
		}
	}
	return out
}

func hasVariant(vs []identity.Variant, v identity.Variant) bool {
	for _, x := range vs {
		if x == v {
			return true
		}
	}
	return false
}
