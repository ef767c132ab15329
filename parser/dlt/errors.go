package dlt

import "errors"

var (
	errUnknownArgTag = errors.New("dlt: unknown argument tag")
	ErrBadPattern     = errors.New("dlt: bad storage pattern")
	ErrBadLength      = errors.New("dlt: invalid standard-header length")
)
