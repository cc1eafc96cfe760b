package config

import "errors"

var (
	// ErrInvalidKey: the key would corrupt the key=value line format.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrInvalidSyntax: a config file line is not a key=value pair.
	ErrInvalidSyntax = errors.New("invalid config syntax")

	// ErrNotDirectory: the output path exists but is a file.
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotWritable: the output directory rejects writes.
	ErrNotWritable = errors.New("directory not writable")
)
