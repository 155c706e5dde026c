package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind es la etiqueta estable que la frontera usa para elegir el código de estado.
type Kind string

const (
	KindValidation Kind = "Validation"
	KindNotFound   Kind = "NotFound"
	KindBadRequest Kind = "BadRequest"
	KindInternal   Kind = "InternalServer"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
)

type kinded interface {
	Kind() Kind
}

// KindOf clasifica cualquier error, envuelto o no. Lo desconocido es InternalServer.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// ---------------- Validation ----------------

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string { return f.Field + ": " + f.Message }

type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func NewValidationError(errs ...FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.String())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Kind() Kind { return KindValidation }

// ---------------- NotFound ----------------

type NotFoundError struct {
	Entity  string
	KeyName string
	Key     string
}

var entitySuffix = regexp.MustCompile(`(?i)entity`)

// CleanEntityName quita el sufijo "Entity" de los nombres de tipo ("ProductEntity" -> "Product").
func CleanEntityName(name string) string {
	return entitySuffix.ReplaceAllString(name, "")
}

// NewNotFoundError construye el error para una búsqueda por clave primaria.
func NewNotFoundError(entity string, key any) *NotFoundError {
	return &NotFoundError{Entity: CleanEntityName(entity), Key: fmt.Sprint(key)}
}

// NewNotFoundErrorBy construye el error para una búsqueda por otro campo o predicado.
func NewNotFoundErrorBy(entity, keyName string, value any) *NotFoundError {
	return &NotFoundError{Entity: CleanEntityName(entity), KeyName: keyName, Key: fmt.Sprint(value)}
}

func (e *NotFoundError) Error() string {
	if e.KeyName == "" {
		return fmt.Sprintf("Could not find %s with id: %s", e.Entity, e.Key)
	}
	return fmt.Sprintf("Could not find %s with %s: %s", e.Entity, e.KeyName, e.Key)
}

func (e *NotFoundError) Kind() Kind { return KindNotFound }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ---------------- BadRequest / InternalServer ----------------

type BadRequestError struct {
	Message string
	Details string
}

func NewBadRequestError(message string, details ...string) *BadRequestError {
	return &BadRequestError{Message: message, Details: strings.Join(details, "; ")}
}

func (e *BadRequestError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func (e *BadRequestError) Kind() Kind { return KindBadRequest }

func (e *BadRequestError) Is(target error) bool { return target == ErrBadRequest }

type InternalServerError struct {
	Message string
	Details string
}

func NewInternalServerError(message string, details ...string) *InternalServerError {
	return &InternalServerError{Message: message, Details: strings.Join(details, "; ")}
}

func (e *InternalServerError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func (e *InternalServerError) Kind() Kind { return KindInternal }
