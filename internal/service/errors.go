package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNormalization matches any NormalizationError.
	ErrNormalization = errors.New("amount column could not be parsed")
	// ErrEmptyDataset is returned when no transaction survives filtering.
	ErrEmptyDataset = errors.New("no transactions above the threshold")
)

// NormalizationError reports an amount column where no row held a number.
type NormalizationError struct {
	Column string
	Rows   int
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: column %q has no numeric value in %d rows", ErrNormalization.Error(), e.Column, e.Rows)
}

func (e *NormalizationError) Is(target error) bool { return target == ErrNormalization }
