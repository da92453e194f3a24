package olc

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("no such record")
	ErrLastRecord     = errors.New("can't delete the last record of this kind")
	ErrNotEditing     = errors.New("you aren't editing anything")
	ErrAlreadyEditing = errors.New("you are already editing something; save or abort first")
	ErrPermission     = errors.New("you don't have permission to do that")
	ErrExists         = errors.New("a record already exists at that vnum")
	ErrUnknownKind    = errors.New("unknown OLC type")
	ErrUnknownField   = errors.New("unknown OLC field")
)

// InputError is a user mistake in an OLC command. Neither the scratch
// record nor the prototype has been changed when one is returned.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

// Inputf builds an InputError.
func Inputf(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsInput reports whether err is a user input error.
func IsInput(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
