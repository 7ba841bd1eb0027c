// Package utils holds small generic helpers shared across packages.
package utils

// Ptr returns a pointer to v. Partial-update request types use pointer
// fields to distinguish "unset" from a zero value; Ptr fills them inline.
func Ptr[T any](v T) *T {
	return &v
}
