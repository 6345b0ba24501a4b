package boltpersistence

import (
	"bytes"
	"context"

	"github.com/dogmatiq/procstore/internal/x/bboltx"
)

// digestBucketKey is the key of the bucket that contains the digest of the
// latest version of each process.
//
// The keys are produced by processKey(). The values are the raw checksums.
var digestBucketKey = []byte("digest_by_id")

// LoadDigest loads the digest for a process ID.
func (t *transaction) LoadDigest(
	ctx context.Context,
	tenantID, processID string,
) (_ []byte, _ bool, err error) {
	defer bboltx.Recover(&err)

	data := t.bucket(ctx, digestBucketKey).Get(processKey(tenantID, processID))
	if data == nil {
		return nil, false, nil
	}

	// data is only valid for the life-time of the BoltDB transaction.
	return bytes.Clone(data), true, nil
}

// SaveDigest creates or replaces the digest for a process ID.
func (t *transaction) SaveDigest(
	ctx context.Context,
	tenantID, processID string,
	checksum []byte,
) (err error) {
	defer bboltx.Recover(&err)

	if checksum == nil {
		// BoltDB does not distinguish between a nil value and a missing key.
		checksum = []byte{}
	}

	bboltx.Put(
		t.bucket(ctx, digestBucketKey),
		processKey(tenantID, processID),
		checksum,
	)

	return nil
}

// RemoveDigest removes the digest for a process ID, if present.
func (t *transaction) RemoveDigest(
	ctx context.Context,
	tenantID, processID string,
) (err error) {
	defer bboltx.Recover(&err)

	bboltx.Delete(
		t.bucket(ctx, digestBucketKey),
		processKey(tenantID, processID),
	)

	return nil
}
