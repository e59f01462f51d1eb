package story

import "errors"

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrProjectLimitReached = errors.New("project limit reached")
	ErrInvalidProject      = errors.New("invalid project")
	ErrInvalidKind         = errors.New("unsupported generation kind")
	ErrEmptyMessage        = errors.New("message is empty")
	ErrGenerationFailed    = errors.New("generation failed")
)
