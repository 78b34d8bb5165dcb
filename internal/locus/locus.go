package locus

import (
	"fmt"
	"strconv"
	"strings"
)

// #region parse
// Parse splits a dot path into branch indices after the root segment.
// "0" parses to an empty slice, "0.3.1" to [3 1].
func Parse(path string) ([]int, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	segs := strings.Split(path, Separator)
	if segs[0] != Root {
		return nil, fmt.Errorf("%q: %w", path, ErrNotRooted)
	}
	out := make([]int, 0, len(segs)-1)
	for _, s := range segs[1:] {
		n, err := strconv.Atoi(s)
		if err != nil || !digits(s) || (len(s) > 1 && s[0] == '0') {
			return nil, fmt.Errorf("%q segment %q: %w", path, s, ErrBadSegment)
		}
		out = append(out, n)
	}
	return out, nil
}

func digits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Format renders branch indices back into a dot path.
func Format(branches []int) string {
	var b strings.Builder
	b.WriteString(Root)
	for _, n := range branches {
		b.WriteString(Separator)
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// Child returns the path of the i-th child of path without interning it.
func Child(path string, i int) string {
	return path + Separator + strconv.Itoa(i)
}

// ParentPath returns the parent path, or "" for the root or a malformed path.
func ParentPath(path string) string {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// #endregion parse

// #region arena
// Arena interns locus paths into integer handles with parent pointers so that
// ancestry tests walk handles instead of re-parsing strings. An arena only grows.
// It is not safe for concurrent mutation; each design or checker owns its own.
type Arena struct {
	nodes  []node
	byPath map[string]ID
}

// NewArena returns an arena holding only the root.
func NewArena() *Arena {
	a := &Arena{byPath: make(map[string]ID)}
	a.nodes = append(a.nodes, node{parent: None, path: Root})
	a.byPath[Root] = 0
	return a
}

// Intern returns the handle for path, creating it and any missing ancestors.
func (a *Arena) Intern(path string) (ID, error) {
	if id, ok := a.byPath[path]; ok {
		return id, nil
	}
	branches, err := Parse(path)
	if err != nil {
		return None, err
	}
	cur := ID(0)
	for _, b := range branches {
		cur = a.child(cur, b)
	}
	return cur, nil
}

// MustIntern is Intern for paths already known to be well formed.
func (a *Arena) MustIntern(path string) ID {
	id, err := a.Intern(path)
	if err != nil {
		panic(err)
	}
	return id
}

func (a *Arena) child(parent ID, index int) ID {
	for _, c := range a.nodes[parent].children {
		if a.nodes[c].index == index {
			return c
		}
	}
	p := a.nodes[parent]
	id := ID(len(a.nodes))
	a.nodes = append(a.nodes, node{
		parent: parent,
		index:  index,
		depth:  p.depth + 1,
		path:   Child(p.path, index),
	})
	a.nodes[parent].children = append(a.nodes[parent].children, id)
	a.byPath[a.nodes[id].path] = id
	return id
}

// Lookup returns the handle of an already interned path.
func (a *Arena) Lookup(path string) (ID, bool) {
	id, ok := a.byPath[path]
	return id, ok
}

// Len returns the number of interned loci.
func (a *Arena) Len() int {
	return len(a.nodes)
}

func (a *Arena) valid(id ID) bool {
	return id >= 0 && int(id) < len(a.nodes)
}

// #endregion arena

// #region accessors
// Path returns the dot path of a handle.
func (a *Arena) Path(id ID) string {
	if !a.valid(id) {
		return ""
	}
	return a.nodes[id].path
}

// Parent returns the parent handle; the root has none.
func (a *Arena) Parent(id ID) (ID, bool) {
	if !a.valid(id) || a.nodes[id].parent == None {
		return None, false
	}
	return a.nodes[id].parent, true
}

// Depth returns the number of branch segments below the root.
func (a *Arena) Depth(id ID) int {
	if !a.valid(id) {
		return -1
	}
	return a.nodes[id].depth
}

// Children returns the interned children of id in creation order.
func (a *Arena) Children(id ID) []ID {
	if !a.valid(id) {
		return nil
	}
	out := make([]ID, len(a.nodes[id].children))
	copy(out, a.nodes[id].children)
	return out
}

// #endregion accessors

// #region relations
// IsAncestor reports whether anc is a strict ancestor of id.
func (a *Arena) IsAncestor(anc, id ID) bool {
	if !a.valid(anc) || !a.valid(id) {
		return false
	}
	if a.nodes[anc].depth >= a.nodes[id].depth {
		return false
	}
	cur := id
	for a.nodes[cur].depth > a.nodes[anc].depth {
		cur = a.nodes[cur].parent
	}
	return cur == anc
}

// IsChild reports whether id is an immediate child of parent.
func (a *Arena) IsChild(parent, id ID) bool {
	return a.valid(id) && a.valid(parent) && a.nodes[id].parent == parent
}

// IsSibling reports whether x and y are distinct loci sharing a parent.
func (a *Arena) IsSibling(x, y ID) bool {
	if !a.valid(x) || !a.valid(y) || x == y {
		return false
	}
	return a.nodes[x].parent != None && a.nodes[x].parent == a.nodes[y].parent
}

// #endregion relations

// #region path-relations
// IsChildPath decides the child relation on raw paths without an arena.
func IsChildPath(parent, path string) bool {
	return ParentPath(path) == parent && parent != ""
}

// IsAncestorPath decides strict ancestry on raw paths by dot-segment prefix.
func IsAncestorPath(anc, path string) bool {
	return len(path) > len(anc) && strings.HasPrefix(path, anc+Separator)
}

// #endregion path-relations
