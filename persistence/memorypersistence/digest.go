package memorypersistence

import (
	"bytes"
	"context"
)

// LoadDigest loads the digest for a process ID.
func (t *transaction) LoadDigest(
	ctx context.Context,
	tenantID, processID string,
) ([]byte, bool, error) {
	if err := t.begin(ctx); err != nil {
		return nil, false, err
	}

	checksum, ok := t.tables.digests[processKey{tenantID, processID}]
	return bytes.Clone(checksum), ok, nil
}

// SaveDigest creates or replaces the digest for a process ID.
func (t *transaction) SaveDigest(
	ctx context.Context,
	tenantID, processID string,
	checksum []byte,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	t.tables.digests[processKey{tenantID, processID}] = bytes.Clone(checksum)
	return nil
}

// RemoveDigest removes the digest for a process ID, if present.
func (t *transaction) RemoveDigest(
	ctx context.Context,
	tenantID, processID string,
) error {
	if err := t.begin(ctx); err != nil {
		return err
	}

	delete(t.tables.digests, processKey{tenantID, processID})
	return nil
}
