// Package store holds ordered, copy-on-write sequences of flat records.
//
// Every operation returns a fresh slice and leaves its input untouched, so
// holders of an older sequence never observe a mutation and callers can
// detect change by comparing the returned slice against the one they had.
package store

import (
	"errors"
	"reflect"
	"strings"

	"github.com/golobby/cast"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates no record in the sequence carries the id.
	ErrNotFound = errors.New("record not found")
	// ErrMinimumSize indicates a removal would shrink the sequence below its floor.
	ErrMinimumSize = errors.New("sequence at minimum size")
)

// Record is a flat item with a stable identifier.
type Record[T any] interface {
	RecordID() string
	WithID(id string) T
}

// NewID returns a fresh record identifier.
func NewID() string {
	return uuid.NewString()
}

// Append adds rec to the end of seq under a freshly generated id.
func Append[T Record[T]](seq []T, rec T) []T {
	out := make([]T, 0, len(seq)+1)
	out = append(out, seq...)
	return append(out, rec.WithID(NewID()))
}

// Prepend adds rec to the front of seq under a freshly generated id.
func Prepend[T Record[T]](seq []T, rec T) []T {
	out := make([]T, 0, len(seq)+1)
	out = append(out, rec.WithID(NewID()))
	return append(out, seq...)
}

// Index returns the position of the record with id, or -1.
func Index[T Record[T]](seq []T, id string) int {
	for i, rec := range seq {
		if rec.RecordID() == id {
			return i
		}
	}
	return -1
}

// Find returns the record with id.
func Find[T Record[T]](seq []T, id string) (T, bool) {
	if i := Index(seq, id); i >= 0 {
		return seq[i], true
	}
	var zero T
	return zero, false
}

// UpdateByID applies patch to the record with id. The record keeps its id
// whatever the patch does to it.
func UpdateByID[T Record[T]](seq []T, id string, patch func(T) (T, error)) ([]T, error) {
	i := Index(seq, id)
	if i < 0 {
		return seq, ErrNotFound
	}

	updated, err := patch(seq[i])
	if err != nil {
		return seq, err
	}

	out := make([]T, len(seq))
	copy(out, seq)
	out[i] = updated.WithID(id)
	return out, nil
}

// RemoveByID drops the record with id. A sequence holding minSize records
// or fewer is left as is and ErrMinimumSize is returned.
func RemoveByID[T Record[T]](seq []T, id string, minSize int) ([]T, error) {
	if len(seq) <= minSize {
		return seq, ErrMinimumSize
	}
	i := Index(seq, id)
	if i < 0 {
		return seq, ErrNotFound
	}

	out := make([]T, 0, len(seq)-1)
	out = append(out, seq[:i]...)
	return append(out, seq[i+1:]...), nil
}

// Filter returns the records where any of the text fields contains query,
// ignoring case. An empty query matches everything.
func Filter[T any](seq []T, query string, fields func(T) []string) []T {
	needle := strings.ToLower(strings.TrimSpace(query))
	out := make([]T, 0, len(seq))
	for _, rec := range seq {
		if needle == "" || matches(fields(rec), needle) {
			out = append(out, rec)
		}
	}
	return out
}

func matches(fields []string, needle string) bool {
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

var int64Type = reflect.TypeOf(int64(0))

// Aggregate sums value across seq. Missing and non-numeric values count as zero.
func Aggregate[T any](seq []T, value func(T) any) int64 {
	var total int64
	for _, rec := range seq {
		total += toInt64(value(rec))
	}
	return total
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case nil:
		return 0
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	case string:
		converted, err := cast.FromType(strings.TrimSpace(n), int64Type)
		if err != nil {
			return 0
		}
		if i, ok := converted.(int64); ok {
			return i
		}
		return 0
	default:
		return 0
	}
}
