package core

import "errors"

// ErrRootInaccessible marks a missing or unreadable archive root. It is
// fatal and surfaces before any manifest mutation.
var ErrRootInaccessible = errors.New("archive root inaccessible")

// ErrCancelled marks a user-initiated abort. It is distinguished from
// failures: the run still yields a partial result marked incomplete,
// and the manifest is left untouched.
var ErrCancelled = errors.New("run cancelled")
