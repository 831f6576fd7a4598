// Package errorf constructs annotated errors without a fmt.Errorf call at
// every use site.
package errorf

import "fmt"

// E formats its arguments with fmt.Sprintf and returns the result as an
// error.
func E(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
