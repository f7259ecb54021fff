// pkg/interact/errors.go
package interact

import (
	"fmt"
	"time"

	"github.com/uitest-io/uitest/pkg/driver"
)

// TimeoutError is the only error the wait engine introduces: no element
// satisfied the predicate before the deadline. It is always fatal to the
// calling action and is never retried past the deadline.
type TimeoutError struct {
	Locator   driver.Locator
	Predicate Predicate
	Timeout   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s waiting for element %s to become %s",
		e.Timeout, e.Locator, e.Predicate)
}
