// Package domains controls which tool groups are registered. Operators can
// shrink the tool surface per deployment with --domains.
package domains

import (
	"fmt"
	"sort"
	"strings"
)

// Known domain names.
const (
	Repositories = "repositories"
	Work         = "work"
	TestPlans    = "testplans"

	// all enables every known domain and is the default.
	all = "all"
)

// Set is the collection of enabled domains.
type Set map[string]struct{}

// Known lists every supported domain, sorted.
func Known() []string {
	return []string{Repositories, TestPlans, Work}
}

// Parse builds the enabled set from --domains values. Values may repeat and
// may be comma-separated. An empty list or "all" enables everything; unknown
// names are an error.
func Parse(values []string) (Set, error) {
	set := make(Set)
	for _, value := range values {
		for _, name := range strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' }) {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}
			if name == all {
				return allSet(), nil
			}
			if !known(name) {
				return nil, fmt.Errorf("unknown domain %q (known: %s)", name, strings.Join(Known(), ", "))
			}
			set[name] = struct{}{}
		}
	}
	if len(set) == 0 {
		return allSet(), nil
	}
	return set, nil
}

// Has reports whether the domain is enabled.
func (s Set) Has(domain string) bool {
	_, ok := s[domain]
	return ok
}

// Names returns the enabled domains, sorted, for logging.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func known(name string) bool {
	for _, k := range Known() {
		if name == k {
			return true
		}
	}
	return false
}

func allSet() Set {
	set := make(Set, len(Known()))
	for _, name := range Known() {
		set[name] = struct{}{}
	}
	return set
}
