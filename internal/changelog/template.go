package changelog

import (
	"sort"
	"strings"
)

// ExpandTemplate replaces each "{{key}}" in tmpl with vars[key]. Placeholders
// whose key is not in vars are left untouched so a later stage can fill them.
func ExpandTemplate(tmpl string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	// deterministic order; values never contain placeholders of their own
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
