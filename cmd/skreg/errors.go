package main

import "errors"

// localEnvError tags an error as a local-environment failure (missing
// configuration, local I/O) rather than a user/remote error, so main can
// map it to exit code 2 per the installer's exit-code contract: 0 success,
// 1 user/remote error (bad credentials, vetting failure, digest mismatch),
// 2 local environment error (missing config, I/O failure).
type localEnvError struct {
	err error
}

func (e *localEnvError) Error() string { return e.err.Error() }
func (e *localEnvError) Unwrap() error { return e.err }

// localEnv wraps err as a localEnvError. Returns nil if err is nil.
func localEnv(err error) error {
	if err == nil {
		return nil
	}
	return &localEnvError{err: err}
}

// isLocalEnvError reports whether err (or anything it wraps) is a
// localEnvError.
func isLocalEnvError(err error) bool {
	var le *localEnvError
	return errors.As(err, &le)
}
