// File: api/interest.go
// Author: momentics <momentics@gmail.com>
//
// Readiness interest directions for reactor registrations.

package api

// Interest is a bit mask of readiness directions an I/O source is watched for.
type Interest uint8

const (
	// Read interest: the handle can be read without blocking.
	Read Interest = 1 << iota
	// Write interest: the handle can be written without blocking.
	Write

	// ReadWrite watches both directions.
	ReadWrite = Read | Write
)

// Has reports whether i contains every direction in dir.
func (i Interest) Has(dir Interest) bool {
	return i&dir == dir
}

// String returns a short human-readable form, used in error context.
func (i Interest) String() string {
	switch i {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read|write"
	}
	return "none"
}
