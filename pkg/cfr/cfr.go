// Package cfr provides the CFR geometry and texture containers: an indexed
// mesh builder with vertex deduplication, per-attribute quantization and the
// binary codecs for .cfrg and .cfrt files.
package cfr

import "errors"

// CFR errors.
var (
	ErrIndexOutOfRange      = errors.New("element index out of range")
	ErrInvalidAttributeType = errors.New("invalid attribute type")
	ErrValueOutOfRange      = errors.New("value out of range")
	ErrBadMagic             = errors.New("invalid magic number")
	ErrBadVersion           = errors.New("unsupported version")
	ErrCorruptHeader        = errors.New("corrupt header")
)
