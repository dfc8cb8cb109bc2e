// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	Success = 0

	// UserError covers bad arguments, validation failures and missing tasks.
	UserError = 1

	// AuthError means there is no usable session.
	AuthError = 2

	// BackendError covers service rejections and network failures.
	BackendError = 3
)
