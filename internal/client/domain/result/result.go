package result

// Unit - значение успешной операции без полезной нагрузки.
type Unit struct{}

// Result - результат операции: либо значение, либо ошибка.
type Result[T any] struct {
	value T
	err   error
}

// Success создает успешный результат.
func Success[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Failure создает неуспешный результат. Ошибка приводится к таксономии.
func Failure[T any](err error) Result[T] {
	if err == nil {
		err = ErrNetworkFailure
	}
	return Result[T]{err: Normalize(err)}
}

// Of строит результат из пары значение/ошибка.
func Of[T any](value T, err error) Result[T] {
	if err != nil {
		return Failure[T](err)
	}
	return Success(value)
}

// IsSuccess сообщает об успехе.
func (r Result[T]) IsSuccess() bool {
	return r.err == nil
}

// IsFailure сообщает о неудаче.
func (r Result[T]) IsFailure() bool {
	return r.err != nil
}

// Value возвращает значение и признак успеха.
func (r Result[T]) Value() (T, bool) {
	return r.value, r.err == nil
}

// Err возвращает ошибку или nil.
func (r Result[T]) Err() error {
	return r.err
}

// Get возвращает значение и ошибку в привычной для Go форме.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// Kind возвращает класс ошибки.
func (r Result[T]) Kind() Kind {
	return KindOf(r.err)
}

// Map преобразует значение успешного результата.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	return Success(fn(r.value))
}
