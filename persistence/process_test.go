package persistence_test

import (
	. "github.com/dogmatiq/procstore/persistence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type ProcessDefinition", func() {
	Describe("func Clone()", func() {
		It("does not share byte buffers", func() {
			def := ProcessDefinition{
				Checksum: []byte("<checksum>"),
				Resource: []byte("<resource>"),
			}

			clone := def.Clone()
			clone.Checksum[0] = 'X'
			clone.Resource[0] = 'X'

			Expect(def.Checksum).To(Equal([]byte("<checksum>")))
			Expect(def.Resource).To(Equal([]byte("<resource>")))
		})
	})
})

var _ = DescribeTable(
	"func LifecycleState.String()",
	func(s LifecycleState, expect string) {
		Expect(s.String()).To(Equal(expect))
	},
	Entry("active", ProcessActive, "active"),
	Entry("pending deletion", ProcessPendingDeletion, "pending-deletion"),
	Entry("unknown", LifecycleState(7), "unknown(7)"),
)
