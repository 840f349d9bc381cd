package model

import "errors"

// ErrCorruptEntry is returned when a serialized entry read back from the
// store is structurally malformed (a short string or id, an unknown winner
// tag); a malformed varint inside an entry surfaces as
// varint.ErrInvalidData instead. Per the failure semantics in SPEC_FULL.md §4.9,
// decode failures on trusted on-disk bytes are fatal to the request that
// triggered the read, never retried, and never cause the merge operator to
// panic — a corrupt operand contributes nothing to a fold instead.
var ErrCorruptEntry = errors.New("model: corrupt entry")
