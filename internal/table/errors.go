package table

import "errors"

var (
	ErrTableNotFound = errors.New("table not found")
	ErrTableClosed   = errors.New("table is closed")
	ErrTooManyTables = errors.New("too many open tables")
	ErrWrongPIN      = errors.New("wrong table PIN")
	ErrBadDirection  = errors.New("direction must be left or right")
)
