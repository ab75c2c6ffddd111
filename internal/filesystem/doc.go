// Package filesystem wraps the operating system calls used to read workflows and replace them
// all-or-nothing.
package filesystem
