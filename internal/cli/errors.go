package cli

import "errors"

// Usage-level failures surfaced by command validation. Domain packages
// carry their own sentinels; these cover problems with what the user
// typed or with the environment the command runs in.
var (
	// ErrAPIKeyMissing: OPENAI_API_KEY is not set.
	ErrAPIKeyMissing = errors.New("OPENAI_API_KEY is not set")

	// ErrInvalidDuration: a duration flag could not be parsed.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrFileNotFound: the input path does not exist.
	ErrFileNotFound = errors.New("input file not found")

	// ErrOutputExists: refusing to overwrite an existing output file.
	ErrOutputExists = errors.New("output file exists")
)
