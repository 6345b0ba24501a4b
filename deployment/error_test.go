package deployment_test

import (
	"errors"
	"fmt"

	. "github.com/dogmatiq/procstore/deployment"
	"github.com/dogmatiq/procstore/persistence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type NoExecutableDefinitionFoundError", func() {
	Describe("func Error()", func() {
		It("describes the missing process", func() {
			err := &NoExecutableDefinitionFoundError{
				TenantID:  "<tenant>",
				Key:       1,
				ProcessID: "P",
			}

			Expect(err).To(MatchError(
				"expected to find executable process 'P' in persisted process with key 1 (tenant '<tenant>'), but after transformation no such executable process could be found",
			))
		})

		It("includes the transformer's error", func() {
			err := &NoExecutableDefinitionFoundError{
				TenantID:  "<tenant>",
				Key:       1,
				ProcessID: "P",
				Cause:     errors.New("<error>"),
			}

			Expect(err).To(MatchError(
				"expected to find executable process 'P' in persisted process with key 1 (tenant '<tenant>'), but the resource could not be transformed: <error>",
			))
		})
	})
})

var _ = Describe("func IsFatal()", func() {
	DescribeTable(
		"it returns true for internal consistency violations",
		func(err error, expect bool) {
			Expect(IsFatal(err)).To(Equal(expect))
		},
		Entry("no executable definition", &NoExecutableDefinitionFoundError{}, true),
		Entry("definition not found", &DefinitionNotFoundError{}, true),
		Entry("element not found", &ElementNotFoundError{}, true),
		Entry("wrapped", fmt.Errorf("<context>: %w", &ElementNotFoundError{}), true),
		Entry("storage", persistence.NotFoundError{}, false),
		Entry("other", errors.New("<error>"), false),
		Entry("nil", nil, false),
	)
})

var _ = Describe("func Checksum()", func() {
	It("returns the MD5 digest of the content", func() {
		Expect(fmt.Sprintf("%x", Checksum([]byte("")))).To(Equal("d41d8cd98f00b204e9800998ecf8427e"))
		Expect(Checksum([]byte("A"))).NotTo(Equal(Checksum([]byte("B"))))
	})
})
