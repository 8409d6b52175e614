package service

import "errors"

var (
	ErrValidation         = errors.New("validation error")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyVerified    = errors.New("already verified")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnavailable        = errors.New("unavailable")
)

// Error связывает вид ошибки с сообщением, которое можно показать клиенту.
// errors.Is находит и вид, и обёрнутую причину.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// unavailable оборачивает сбой инфраструктуры, текст причины уходит клиенту
func unavailable(err error) error {
	return &Error{Kind: ErrUnavailable, Message: err.Error(), Err: err}
}
