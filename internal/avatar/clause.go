package avatar

import (
	"regexp"
	"strings"
)

// numericPattern matches identifiers that PostgREST accepts bare inside an
// in.(...) clause: optional leading minus, digits, optional decimal part.
var numericPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// inClause renders a "value is one of" filter for one batch of identifiers.
// Numeric identifiers are emitted unquoted; everything else is wrapped in
// double quotes with embedded quotes doubled, so a crafted identifier cannot
// break out of the clause. Returns "" for an empty batch, in which case the
// caller must skip the remote call.
func inClause(ids []string) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if numericPattern.MatchString(id) {
			parts = append(parts, id)
			continue
		}
		parts = append(parts, `"`+strings.ReplaceAll(id, `"`, `""`)+`"`)
	}
	return "in.(" + strings.Join(parts, ",") + ")"
}
