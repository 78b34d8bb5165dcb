package store

import (
	"errors"
	"time"
)

// #region errors
// ErrNotFound is returned when a design, dispute or cached result is absent.
var ErrNotFound = errors.New("not found")

// #endregion errors

// #region result-record
// ResultRecord is one cached check result.
type ResultRecord struct {
	SubjectID  string
	Kind       string // check kind, e.g. "legality" or "type:combined:x * unit"
	ResultJSON string
	CheckedAt  time.Time
}

// #endregion result-record
