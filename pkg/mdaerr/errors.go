// Package mdaerr defines the error taxonomy shared by the revlog and mda
// packages, per spec §7: CorruptArchive, RevisionNotFound, MediaKindUnknown,
// Io, InvariantViolated. None of these are returned via panic or
// process.Exit; every failure path in this module bubbles one of these up
// to the caller.
package mdaerr

import "fmt"

// CorruptArchiveError reports a decode failure, an inconsistent region
// boundary, or an offset outside the file.
type CorruptArchiveError struct {
	Reason string
}

func (e *CorruptArchiveError) Error() string {
	return fmt.Sprintf("corrupt archive: %s", e.Reason)
}

// NewCorruptArchive builds a CorruptArchiveError with a formatted reason.
func NewCorruptArchive(format string, args ...interface{}) error {
	return &CorruptArchiveError{Reason: fmt.Sprintf(format, args...)}
}

// RevisionNotFoundError reports a requested rev outside [0, len(entries))
// (and not -1, the latest-revision sentinel).
type RevisionNotFoundError struct {
	Rev int64
}

func (e *RevisionNotFoundError) Error() string {
	return fmt.Sprintf("revision not found: %d", e.Rev)
}

// MediaKindUnknownError reports a training-data tag outside
// {Text, Image, Video, Audio}.
type MediaKindUnknownError struct {
	Kind byte
}

func (e *MediaKindUnknownError) Error() string {
	return fmt.Sprintf("unknown media kind: %d", e.Kind)
}

// InvariantViolatedError reports a broken revlog invariant (E1-E3, H1-H4)
// discovered at reconstruction time. Spec §7 requires that this replace the
// one process-terminating code path preserved from the original source
// (a missing index entry during reconstruct).
type InvariantViolatedError struct {
	Reason string
}

func (e *InvariantViolatedError) Error() string {
	return fmt.Sprintf("invariant violated: %s", e.Reason)
}

// NewInvariantViolated builds an InvariantViolatedError with a formatted reason.
func NewInvariantViolated(format string, args ...interface{}) error {
	return &InvariantViolatedError{Reason: fmt.Sprintf(format, args...)}
}

// WrapIO tags an underlying read/write/seek failure as spec's Io kind.
// Kept as a thin wrapper rather than a distinct type so errors.Is/As still
// see through to the original os/io error.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("mda: io: %s: %w", op, err)
}
