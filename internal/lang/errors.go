package lang

import "errors"

// ErrInvalid marks language codes outside the supported set.
var ErrInvalid = errors.New("unsupported language")
