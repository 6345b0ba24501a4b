package deployment

import (
	"crypto/md5"
)

// Record is a deployment, an atomic batch that introduces one or more new
// process definitions.
type Record struct {
	// Key is the deployment key.
	Key uint64

	// TenantID is the ID of the tenant that owns every process in the
	// deployment.
	TenantID string

	// Resources are the documents included in the deployment.
	Resources []Resource

	// Processes describes the processes defined by the resources.
	Processes []ProcessMetadata
}

// Resource is a single document within a deployment.
type Resource struct {
	Name    string
	Content []byte
}

// ProcessMetadata describes a process defined by one of a deployment's
// resources.
type ProcessMetadata struct {
	// Key is the definition key that is assigned to the process.
	Key uint64

	// ProcessID is the ID of the process within the resource.
	ProcessID string

	// Version is the version number assigned to the process.
	Version uint64

	// ResourceName is the name of the resource that defines the process.
	ResourceName string

	// Checksum is the digest of the resource's content. If it is empty it is
	// computed using Checksum().
	Checksum []byte
}

// Checksum returns the digest of a resource's content, as stored in the
// digest table and compared against when detecting an unchanged redeployment.
func Checksum(content []byte) []byte {
	sum := md5.Sum(content)
	return sum[:]
}
