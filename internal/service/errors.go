package service

import "fmt"

// InvalidArgumentError reports an out-of-domain query parameter, such as a
// month outside 1..12. It is raised before any date arithmetic or storage
// access happens.
type InvalidArgumentError struct {
	Message string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid argument: %s", e.Message)
}

// InitializationError reports an internal date/range computation failure. It
// signals a bug in the core rather than something the user can act on.
type InitializationError struct {
	Message string
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("initialization failed: %s", e.Message)
}
