package avatar

import "strings"

// normalize trims raw identifiers, drops empty ones, and deduplicates while
// preserving first-seen order, so a fixed input always produces the same
// batch layout.
func normalize(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
