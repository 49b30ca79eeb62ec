package sim

import (
	"errors"
	"fmt"
)

// ErrRejected is the sentinel wrapped by every rejection returned from
// Block.Take. A rejection is an expected control signal: the upstream block
// keeps the agent and retries on its next tick. Errors returned from Take
// that do not wrap ErrRejected indicate misconfiguration and abort the run.
var ErrRejected = errors.New("agent rejected")

// Rejectf builds a rejection error with a formatted reason. The result
// satisfies errors.Is(err, ErrRejected).
func Rejectf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrRejected)
}
