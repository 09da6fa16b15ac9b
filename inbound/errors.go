package inbound

import (
	"fmt"
)

// failureDetail renders the full error chain for the audit trail. Panics
// carry the stack captured at recovery.
func failureDetail(err error, stack []byte) string {
	detail := fmt.Sprintf("Synchronizer failed: %+v", err)
	if len(stack) > 0 {
		detail += "\n" + string(stack)
	}
	return detail
}

func panicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", recovered)
}
