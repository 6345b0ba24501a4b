package providertest

import (
	"context"
	"time"

	"github.com/dogmatiq/procstore/persistence"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

// In is a container for values provided by the test suite to the
// provider-specific initialization code.
type In struct {
	// StoreName is the name of the data-store opened by most tests.
	StoreName string
}

// Out is a container for values that are provided by the provider-specific
// initialization code to the test suite.
type Out struct {
	// NewProvider is a function that creates a new provider.
	NewProvider func() (p persistence.Provider, close func())

	// IsShared returns true if multiple instances of the same provider access
	// the same data.
	IsShared bool

	// TestTimeout is the maximum duration allowed for each test.
	TestTimeout time.Duration
}

// DefaultTestTimeout is the default test timeout.
const DefaultTestTimeout = 10 * time.Second

// DefaultStoreName is the name of the data-store used by the tests.
const DefaultStoreName = "<store>"

// TestContext encapsulates the shared test context passed to the tests for each
// group of provider tests.
type TestContext struct {
	Context context.Context
	In      In
	Out     Out
}

// SetupDataStore sets up a new data-store.
//
// The data-store and its provider are closed automatically when the test
// ends.
func (tc *TestContext) SetupDataStore() (persistence.Provider, persistence.DataStore) {
	p, close := tc.Out.NewProvider()
	if close != nil {
		ginkgo.DeferCleanup(close)
	}

	ds, err := p.Open(tc.Context, tc.In.StoreName)
	gomega.Expect(err).ShouldNot(gomega.HaveOccurred())
	ginkgo.DeferCleanup(func() { ds.Close() })

	return p, ds
}
