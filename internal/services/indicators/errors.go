package indicators

import "fmt"

// InsufficientDataError means the input series is shorter than the
// indicator needs. Callers skip the symbol for the cycle.
type InsufficientDataError struct {
	What string
	Need int
	Got  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: need %d bars, got %d", e.What, e.Need, e.Got)
}
