package matchup

import "errors"

// Sentinel kinds for comparison log errors.
var (
	ErrSelfLoop        = errors.New("item cannot be compared with itself")
	ErrInconsistentLog = errors.New("result contradicts recorded comparisons")
)
