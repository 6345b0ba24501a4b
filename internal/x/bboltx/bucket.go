package bboltx

import "go.etcd.io/bbolt"

// BucketParent is satisfied by *bbolt.Tx and *bbolt.Bucket.
type BucketParent interface {
	CreateBucketIfNotExists([]byte) (*bbolt.Bucket, error)
}

// CreateBucketIfNotExists creates nested buckets with names given by the
// elements of path, and returns the innermost bucket.
func CreateBucketIfNotExists(p BucketParent, path ...[]byte) *bbolt.Bucket {
	if len(path) == 0 {
		panic("at least one path element must be provided")
	}

	var b *bbolt.Bucket

	for _, n := range path {
		var err error
		b, err = p.CreateBucketIfNotExists(n)
		Must(err)

		p = b
	}

	return b
}

// Put writes a value to a bucket.
func Put(b *bbolt.Bucket, k, v []byte) {
	Must(b.Put(k, v))
}

// Delete removes a key from a bucket. A missing key is not an error.
func Delete(b *bbolt.Bucket, k []byte) {
	Must(b.Delete(k))
}
