package record

import "errors"

// ErrUnknownColumn indicates a lookup of a column the merged schema does not have.
var ErrUnknownColumn = errors.New("unknown column")
