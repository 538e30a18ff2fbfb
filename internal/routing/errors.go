package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoModelAvailable signals that filtering left no eligible model. The
// router never silently picks an ineligible model instead.
var ErrNoModelAvailable = errors.New("no model available")

// ErrUnknownModel signals an operation on an unregistered model ID.
var ErrUnknownModel = errors.New("unknown model")

// InvalidValueError reports a wire value outside its enum's valid set.
type InvalidValueError struct {
	Field string
	Value string
	Valid []string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s %q: must be one of %s", e.Field, e.Value, strings.Join(e.Valid, ", "))
}
