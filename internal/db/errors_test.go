package db

import (
	"errors"
	"testing"
)

func TestError_Unwrap(t *testing.T) {
	err := &Error{Op: OpSearch, Err: ErrVectorRejected}
	if !errors.Is(err, ErrVectorRejected) {
		t.Error("errors.Is(err, ErrVectorRejected) = false")
	}
	if err.Error() != "FT.SEARCH: db: vector rejected" {
		t.Errorf("Error() = %q", err.Error())
	}
}
