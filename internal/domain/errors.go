package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData signals that no movement records fell inside the requested
// window. Callers surface it as an empty result, not a failure.
var ErrNoData = errors.New("no movement data in the requested window")

// SchemaError reports required columns that were absent from every loaded
// extract. Per-file absences are recovered locally; only a column missing
// across the whole input set is fatal for the aggregation call.
type SchemaError struct {
	MissingColumns []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required columns missing from all extracts: %s",
		strings.Join(e.MissingColumns, ", "))
}
