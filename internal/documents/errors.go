package documents

import "errors"

var (
	// ErrNotFound indicates the document does not exist or belongs to another user.
	ErrNotFound = errors.New("document not found")
	// ErrInvalidInput indicates a missing or malformed request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedType indicates a file extension outside the allowlist.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge indicates the file exceeds the upload size cap.
	ErrTooLarge = errors.New("file too large")
)
