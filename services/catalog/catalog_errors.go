package catalog

import "fmt"

var (
	ErrListingNotFound    = fmt.Errorf("listing not found")
	ErrInvalidListingData = fmt.Errorf("catalog returned invalid listing data")
)
