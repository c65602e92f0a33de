package db

import "errors"

// ErrKeyNotFound is returned by key-value reads on a miss.
var ErrKeyNotFound = errors.New("db: key not found")

// Op constants name the failing command or statement for error context.
const (
	OpGet    = "GET"
	OpSet    = "SET"
	OpIncrBy = "INCRBY"
	OpExpire = "EXPIRE"
	OpLPush  = "LPUSH"
	OpLTrim  = "LTRIM"
	OpLRange = "LRANGE"
	OpLRem   = "LREM"
	OpDel    = "DEL"

	OpQuery = "QUERY"
	OpExec  = "EXEC"
	OpTx    = "TX"
	OpPing  = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
