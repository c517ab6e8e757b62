package domain

import (
	"errors"
	"fmt"
)

// ErrAdvertDiscarded сигнализирует, что объявление отброшено целиком
// (например, на странице нет списка оборудования при политике discard).
var ErrAdvertDiscarded = errors.New("advert discarded")

// MissingFieldError: на странице нет якоря обязательного поля (price, year).
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("mandatory field %q not found in document", e.Field)
}

// MalformedValueError: текст поля не удалось привести к ожидаемому типу.
type MalformedValueError struct {
	Field string
	Raw   string
	Err   error
}

func (e *MalformedValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed value for field %q (%q): %v", e.Field, e.Raw, e.Err)
	}
	return fmt.Sprintf("malformed value for field %q (%q)", e.Field, e.Raw)
}

func (e *MalformedValueError) Unwrap() error { return e.Err }

// TransportError: не удалось получить страницу поиска или детальную страницу.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error for %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UnknownFilterError: производитель или модель отсутствуют в таблице кодов.
type UnknownFilterError struct {
	Kind       string // "manufacturer" или "model"
	Name       string
	Suggestion string
}

func (e *UnknownFilterError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown %s %q (did you mean %q?)", e.Kind, e.Name, e.Suggestion)
	}
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Name)
}

// IsSkippable: ошибка касается только одного объявления, сбор продолжается.
func IsSkippable(err error) bool {
	if err == nil {
		return false
	}
	var missing *MissingFieldError
	var malformed *MalformedValueError
	return errors.As(err, &missing) || errors.As(err, &malformed) || errors.Is(err, ErrAdvertDiscarded)
}
