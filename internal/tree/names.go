package tree

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Sibling names within one folder scope are unique under trimmed,
// locale-lowercased comparison. The helpers here implement that rule;
// the deterministic "Name 2", "Name 3" suffixing keeps creation from
// ever colliding silently.

var scopeLower = cases.Lower(language.Und)

// NormalizeScopeName maps a name to its uniqueness key: trimmed and
// locale-lowercased.
func NormalizeScopeName(name string) string {
	return scopeLower.String(strings.TrimSpace(name))
}

func siblings(root *Root, parentID string) []*Node {
	if parentID == "" || parentID == RootID {
		return root.Children
	}
	n := FindNode(root, parentID)
	if n == nil || !n.IsFolder() {
		return nil
	}
	return n.Children
}

// IsNameTaken reports whether candidate collides with a sibling name in
// the given scope. excludeID skips one node, so a rename to the node's
// own current name is not a collision.
func IsNameTaken(root *Root, parentID, candidate, excludeID string) bool {
	want := NormalizeScopeName(candidate)
	for _, s := range siblings(root, parentID) {
		if s.ID == excludeID {
			continue
		}
		if NormalizeScopeName(s.Name) == want {
			return true
		}
	}
	return false
}

// UniqueName returns base when it is free in the scope, otherwise the
// first free "base 2", "base 3", ... variant.
func UniqueName(root *Root, parentID, base string) string {
	base = strings.TrimSpace(base)
	if !IsNameTaken(root, parentID, base, "") {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s %d", base, i)
		if !IsNameTaken(root, parentID, candidate, "") {
			return candidate
		}
	}
}
