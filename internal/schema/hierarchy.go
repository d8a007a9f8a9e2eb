package schema

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// ParentID derives the structural parent of a clause identifier.
// "6.1.2" has parent "6.1"; "A.2" and "A.2.1" have parent "A";
// single-segment identifiers have none.
func ParentID(id string) string {
	if id == "" {
		return ""
	}
	if isDigit(id[0]) {
		if i := strings.LastIndexByte(id, '.'); i > 0 {
			return id[:i]
		}
		return ""
	}
	if i := strings.IndexByte(id, '.'); i > 0 {
		return id[:i]
	}
	return ""
}

// BuildHierarchy links every clause to its structural parent when that
// parent exists, then returns the root identifiers in output order:
// numeric roots by integer segments, then annex roots lexically.
// Calling it again on the same arena changes nothing.
func BuildHierarchy(a *Arena) []string {
	for _, id := range a.order {
		pid := ParentID(id)
		if pid == "" || pid == id {
			continue
		}
		parent, ok := a.clauses[pid]
		if !ok {
			continue
		}
		if !slices.Contains(parent.Children, id) {
			parent.Children = append(parent.Children, id)
			a.clauses[id].ParentID = pid
		}
	}

	isChild := make(map[string]bool)
	for _, id := range a.order {
		for _, child := range a.clauses[id].Children {
			isChild[child] = true
		}
	}
	var roots []string
	for _, id := range a.order {
		if !isChild[id] {
			roots = append(roots, id)
		}
	}
	slices.SortStableFunc(roots, compareRoots)
	return roots
}

func compareRoots(a, b string) int {
	an, bn := isDigit(a[0]), isDigit(b[0])
	switch {
	case an && !bn:
		return -1
	case !an && bn:
		return 1
	case an && bn:
		return slices.Compare(segments(a), segments(b))
	default:
		return cmp.Compare(a, b)
	}
}

// segments parses "6.1.2" into [6 1 2]; anything unparsable sorts as [0].
func segments(id string) []int {
	parts := strings.Split(id, ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return []int{0}
		}
		out = append(out, n)
	}
	return out
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
