package browse

import (
	"strings"
)

// Policy decides which names are kept out of listings and refused when served.
type Policy struct {
	ShowHidden bool
	ignore     map[string]struct{}
}

func NewPolicy(showHidden bool, ignore []string) Policy {
	policy := Policy{ShowHidden: showHidden, ignore: map[string]struct{}{}}
	for _, name := range ignore {
		if name = strings.TrimSpace(name); name != `` {
			policy.ignore[name] = struct{}{}
		}
	}
	return policy
}

func (policy Policy) Hides(name string) bool {
	if name == `.` || name == `..` || name == `` {
		return false
	}
	if _, ok := policy.ignore[name]; ok {
		return true
	}
	return !policy.ShowHidden && strings.HasPrefix(name, `.`)
}

// Forbids reports whether any segment of rel is hidden.
func (policy Policy) Forbids(rel string) bool {
	for _, segment := range strings.Split(strings.ReplaceAll(rel, `\`, `/`), `/`) {
		if policy.Hides(segment) {
			return true
		}
	}
	return false
}
