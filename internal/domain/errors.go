package domain

import "errors"

var (
	// ErrNoMatch means no stored entry was similar enough to answer with.
	// The loop maps it to the spoken fallback instead of an unrelated answer.
	ErrNoMatch = errors.New("no confident match")

	// ErrIndexEmpty means the knowledge index holds no entries at all.
	ErrIndexEmpty = errors.New("knowledge index is empty")
)
