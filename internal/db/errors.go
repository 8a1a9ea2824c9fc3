package db

import (
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned for a missing hash or string key.
	ErrKeyNotFound = errors.New("db: key not found")
	// ErrIndexNotFound is returned when FT.SEARCH or FT.INFO names an unknown index.
	ErrIndexNotFound = errors.New("db: index not found")
	// ErrIndexExists is returned by CreateIndex for a name already in use.
	ErrIndexExists = errors.New("db: index already exists")
)

// Op names the store command that failed.
type Op string

const (
	OpCreateIndex Op = "FT.CREATE"
	OpIndexInfo   Op = "FT.INFO"
	OpSearch      Op = "FT.SEARCH"
	OpHGetAll     Op = "HGETALL"
	OpGet         Op = "GET"
	OpSet         Op = "SET"
	OpIncrBy      Op = "INCRBY"
	OpExpire      Op = "EXPIRE"
)

// Error is a failed store command. Target is the key or index it addressed.
type Error struct {
	Op     Op
	Target string
	Err    error
}

// NewError wraps err with the command and target it came from.
func NewError(op Op, target string, err error) *Error {
	return &Error{Op: op, Target: target, Err: err}
}

func (e *Error) Error() string {
	if e.Target == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
