// Package chk provides the one-line "log and report" guards used at almost
// every fallible call site in this module:
//
//	if err = f(); chk.E(err) {
//	    return
//	}
//
// Each guard logs the error at its level (if non-nil) and returns whether an
// error occurred, so the call and the early-return read as a single
// expression.
package chk

import "github.com/nostrcore/relay/pkg/utils/log"

// E logs err at error level and reports whether it was non-nil. Use for
// failures that are genuinely unexpected — storage errors, encoding bugs.
func E(err error) bool {
	if err == nil {
		return false
	}
	log.E.F("%v", err)
	return true
}

// T logs err at trace level and reports whether it was non-nil. Use for
// failures that are routine/expected in normal operation (a malformed client
// frame, a signature that doesn't verify) and shouldn't be noisy.
func T(err error) bool {
	if err == nil {
		return false
	}
	log.T.C(func() string { return err.Error() })
	return true
}

// D logs err at debug level and reports whether it was non-nil.
func D(err error) bool {
	if err == nil {
		return false
	}
	log.D.C(func() string { return err.Error() })
	return true
}
