package matching

import (
	"fmt"

	"github.com/turtacn/MolMatch/pkg/errors"
)

func invalidGraph(role, format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeInvalidGraph, fmt.Sprintf(format, args...)).
		WithDetail("graph=" + role)
}

func configError(format string, args ...interface{}) error {
	return errors.New(errors.ErrCodeMatchConfigInvalid, fmt.Sprintf(format, args...))
}

// IsInvalidGraph reports whether err stems from a malformed query or target graph.
func IsInvalidGraph(err error) bool {
	return errors.IsCode(err, errors.ErrCodeInvalidGraph)
}

// IsConfigurationError reports whether err stems from contradictory or
// out-of-range Options.
func IsConfigurationError(err error) bool {
	return errors.IsCode(err, errors.ErrCodeMatchConfigInvalid)
}

//Personal.AI order the ending
