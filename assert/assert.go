package assert

import (
	"reflect"
	"testing"
)

// Equal fails the test if expected != actual.
func Equal[T comparable](t *testing.T, expected, actual T, msg string) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// DeepEqual fails the test if expected and actual are not deeply equal.
func DeepEqual(t *testing.T, expected, actual any, msg string) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// True fails the test if cond is false.
func True(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", msg)
	}
}

// False fails the test if cond is true.
func False(t *testing.T, cond bool, msg string) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", msg)
	}
}

// Nil fails the test if v is not nil.
func Nil(t *testing.T, v any, msg string) {
	t.Helper()
	if !isNil(v) {
		t.Errorf("%s: expected nil, got %v", msg, v)
	}
}

// NotNil fails the test if v is nil.
func NotNil(t *testing.T, v any, msg string) {
	t.Helper()
	if isNil(v) {
		t.Errorf("%s: expected non-nil", msg)
	}
}

// Len fails the test if the value does not have the expected length.
func Len(t *testing.T, expected int, v any, msg string) {
	t.Helper()
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String, reflect.Chan:
		if rv.Len() != expected {
			t.Errorf("%s: expected length %d, got %d", msg, expected, rv.Len())
		}
	default:
		t.Errorf("%s: value of kind %s has no length", msg, rv.Kind())
	}
}

// NoError fails the test immediately if err is not nil.
func NoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", msg, err)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
