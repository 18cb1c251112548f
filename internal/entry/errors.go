package entry

import (
	"errors"
	"fmt"
)

// Error represents a payload failure on the write or read path.
//
// Serialization errors fail a single append and are never retried by the
// store. Deserialize errors fail a single element of a scan; the surrounding
// batch continues.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Key is the entry key involved, if known.
	Key string

	// WriteTs identifies the affected row on the read path (0 on writes).
	WriteTs float64

	// Message is a human-readable description.
	Message string

	// Err is the underlying encoder/decoder error.
	Err error
}

// ErrorCode categorizes payload errors.
type ErrorCode string

const (
	// ErrCodeSerialization indicates a payload could not be encoded on write.
	ErrCodeSerialization ErrorCode = "SERIALIZATION"

	// ErrCodeDeserialize indicates a stored payload could not be decoded.
	ErrCodeDeserialize ErrorCode = "DESERIALIZE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Key != "" {
		msg += fmt.Sprintf(" (key=%s", e.Key)
		if e.WriteTs != 0 {
			msg += fmt.Sprintf(", write_ts=%v", e.WriteTs)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsSerializationError returns true if err is a serialization error.
// Uses errors.As to handle wrapped errors.
func IsSerializationError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeSerialization
	}
	return false
}

// IsDeserializeError returns true if err is a deserialize error.
// Uses errors.As to handle wrapped errors.
func IsDeserializeError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == ErrCodeDeserialize
	}
	return false
}

// NewSerializationError creates an Error for a payload that cannot be encoded.
func NewSerializationError(key string, err error) *Error {
	return &Error{
		Code:    ErrCodeSerialization,
		Key:     key,
		Message: "payload cannot be encoded",
		Err:     err,
	}
}

// NewDeserializeError creates an Error for a stored payload that cannot be decoded.
func NewDeserializeError(key string, writeTs float64, err error) *Error {
	return &Error{
		Code:    ErrCodeDeserialize,
		Key:     key,
		WriteTs: writeTs,
		Message: "payload cannot be decoded",
		Err:     err,
	}
}
