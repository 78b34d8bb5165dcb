package locus

import "errors"

// #region constants
// Root is the path of the root locus of every discourse tree.
const Root = "0"

// Separator joins branch indices in a locus path.
const Separator = "."

// #endregion constants

// #region errors
var (
	ErrEmptyPath  = errors.New("empty locus path")
	ErrNotRooted  = errors.New("locus path is not rooted at 0")
	ErrBadSegment = errors.New("locus path segment is not a non-negative integer")
)

// #endregion errors

// #region handle
// ID is an integer handle into an Arena. The zero handle is always the root.
type ID int32

// None marks the absence of a locus (e.g. the parent of the root).
const None ID = -1

// #endregion handle

// #region node
type node struct {
	parent   ID
	index    int // branch index under parent; 0 for the root
	depth    int
	path     string
	children []ID
}

// #endregion node
