package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

// Is reports whether err carries this code.
func (c Code[MT]) Is(err error) bool {
	var typed Error
	if !stderrors.As(err, &typed) {
		return false
	}
	return typed.Code() == c.Code
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		if err := json.Unmarshal(buf, &genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

// GRPCStatus makes the error convertible with status.Convert.
func (e *ErrorImpl[MT]) GRPCStatus() *status.Status {
	return status.New(e.code.GrpcCode, e.Error())
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *ErrorImpl[MT]) Unwrap() error {
	return e.cause
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type HashMetadata struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

type CheckpointConflictMetadata struct {
	Height       uint64 `json:"height"`
	ExistingHash string `json:"existing_hash"`
	GivenHash    string `json:"given_hash"`
}

type CheckpointMismatchMetadata struct {
	Height       uint64 `json:"height"`
	ExpectedHash string `json:"expected_hash"`
	GotHash      string `json:"got_hash"`
}

type StoreFailureMetadata struct {
	Operation string `json:"operation"`
	Height    uint64 `json:"height"`
}

type InvalidParamsMetadata struct {
	CheckpointInterval uint64 `json:"checkpoint_interval"`
	PersistentInterval uint64 `json:"persistent_interval"`
}

var INVALID_HASH = Code[HashMetadata]{1, "INVALID_HASH", grpccodes.InvalidArgument}

var CHECKPOINT_CONFLICT = Code[CheckpointConflictMetadata]{
	2,
	"CHECKPOINT_CONFLICT",
	grpccodes.AlreadyExists,
}

var CHECKPOINT_MISMATCH = Code[CheckpointMismatchMetadata]{
	3,
	"CHECKPOINT_MISMATCH",
	grpccodes.FailedPrecondition,
}
var STORE_FAILURE = Code[StoreFailureMetadata]{4, "STORE_FAILURE", grpccodes.Internal}
var INVALID_PARAMS = Code[InvalidParamsMetadata]{5, "INVALID_PARAMS", grpccodes.InvalidArgument}
