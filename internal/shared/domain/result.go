package domain

// Result es el resultado observable de un comando o consulta: Success(valor) | Failure(error).
type Result[T any] struct {
	value T
	err   error
}

func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure con un error nil se normaliza a InternalServerError para no producir un "éxito vacío".
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = NewInternalServerError("failure without error")
	}
	return Result[T]{err: err}
}

func (r Result[T]) IsSuccess() bool { return r.err == nil }

func (r Result[T]) IsFailure() bool { return r.err != nil }

func (r Result[T]) Value() T { return r.value }

func (r Result[T]) Err() error { return r.err }

// Unwrap devuelve el par (valor, error) al estilo Go.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }
