package prim

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is wrapped by every error New returns for invalid input.
	ErrConfiguration = errors.New("prim: invalid configuration")

	// ErrSelectIndex is returned by Select for a trajectory index out of range.
	ErrSelectIndex = errors.New("prim: trajectory index out of range")

	// ErrSelectConflict is returned by Select when the rolled-back box would
	// claim rows that belong to another discovered box.
	ErrSelectConflict = errors.New("prim: selected box overlaps another box")

	// ErrPCANotSupported is returned by PerformPCA.
	ErrPCANotSupported = errors.New("prim: PCA preprocessing is not supported")
)

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
