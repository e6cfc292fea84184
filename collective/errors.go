package collective

import "fmt"

// CollectiveError reports a failed group-wide operation. There is no partial
// result: the whole group is expected to abort.
type CollectiveError struct {
	Op   string
	Rank int
	Err  error
}

func (e *CollectiveError) Error() string {
	return fmt.Sprintf("rank %d: %s failed: %v", e.Rank, e.Op, e.Err)
}

func (e *CollectiveError) Unwrap() error {
	return e.Err
}
