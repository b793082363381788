package service

import (
	"errors"

	"github.com/faa999-tech/telebotshop/internal/constants"
)

type Error struct {
	Code  string
	Cause error
}

func NewServiceError(code string, cause error) error {
	if cause == nil {
		cause = errors.New(constants.GetErrorMessage(code))
	}
	return Error{Code: code, Cause: cause}
}

func (e Error) Error() string {
	return e.Cause.Error()
}

func (e Error) Unwrap() error {
	return e.Cause
}
