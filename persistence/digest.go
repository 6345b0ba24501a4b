package persistence

import "context"

// DigestTable is an interface for reading and writing the checksum of the
// latest version of each process.
type DigestTable interface {
	// LoadDigest loads the digest for a process ID.
	//
	// ok is false if there is no digest for the process.
	LoadDigest(
		ctx context.Context,
		tenantID, processID string,
	) (checksum []byte, ok bool, err error)

	// SaveDigest creates or replaces the digest for a process ID.
	SaveDigest(ctx context.Context, tenantID, processID string, checksum []byte) error

	// RemoveDigest removes the digest for a process ID, if present.
	RemoveDigest(ctx context.Context, tenantID, processID string) error
}
