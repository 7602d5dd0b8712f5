package reservation

import (
	"sort"
	"strings"
)

// venueAliases maps lowercase spoken aliases to the labels shown in the venue list.
var venueAliases = map[string]string{
	"appia":           "Appia",
	"ostia":           "Ostia Lido",
	"ostia lido":      "Ostia Lido",
	"ostia - lido":    "Ostia Lido",
	"palermo":         "Palermo",
	"reggio":          "Reggio Calabria",
	"reggio calabria": "Reggio Calabria",
	"talenti":         "Talenti - Roma",
	"talenti roma":    "Talenti - Roma",
	"talenti - roma":  "Talenti - Roma",
	"roma talenti":    "Talenti - Roma",
}

// containsOrder is checked longest-first so "ostia lido" wins over "ostia".
var containsOrder = func() []string {
	keys := make([]string, 0, len(venueAliases))
	for k := range venueAliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ResolveVenue maps an alias to its canonical venue name. Unknown input is returned unchanged.
func ResolveVenue(key string) string {
	v := strings.ToLower(strings.TrimSpace(key))
	if v == "" {
		return key
	}
	if name, ok := venueAliases[v]; ok {
		return name
	}
	for _, alias := range containsOrder {
		if strings.Contains(v, alias) {
			return venueAliases[alias]
		}
	}
	return key
}

// Venues lists the canonical venue names.
func Venues() []string {
	seen := map[string]bool{}
	var out []string
	for _, k := range containsOrder {
		name := venueAliases[k]
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
