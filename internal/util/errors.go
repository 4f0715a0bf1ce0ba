package util

import "errors"

// ErrPublic is an error whose message can be shown as-is to the user.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

// Is makes errors.Is(err, ErrPublic("")) match any ErrPublic.
func (e ErrPublic) Is(v error) bool {
	_, ok := v.(ErrPublic)
	return ok
}

// IsPublic returns true if the error or any error it wraps is an ErrPublic.
func IsPublic(err error) bool {
	return errors.Is(err, ErrPublic(""))
}
