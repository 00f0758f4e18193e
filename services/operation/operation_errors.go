package operation

import "fmt"

var (
	ErrOperationNotFound = fmt.Errorf("operation not found")
)
