package persistence_test

import (
	. "github.com/dogmatiq/procstore/persistence"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("type NotFoundError", func() {
	Describe("func Error()", func() {
		It("includes the table, tenant and key", func() {
			err := NotFoundError{
				Table:    RecordsByIDVersionTable,
				TenantID: "<tenant>",
				Key:      VersionKeyString("<process>", 3),
			}

			Expect(err).To(MatchError(
				"record not found in records_by_id_version table (tenant '<tenant>', key <process>@3)",
			))
		})
	})
})

var _ = Describe("type DuplicateVersionError", func() {
	Describe("func Error()", func() {
		It("includes both keys, the tenant and the version", func() {
			err := DuplicateVersionError{
				TenantID:    "<tenant>",
				ProcessID:   "<process>",
				Version:     3,
				Key:         2,
				ExistingKey: 1,
			}

			Expect(err).To(MatchError(
				"can not save process definition with key 2 (tenant '<tenant>'), version 3 of process '<process>' already belongs to the definition with key 1",
			))
		})
	})
})
