package cli

import (
	"os"
	"path/filepath"

	"github.com/dogmatiq/procstore/internal/testing/boltdbtest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func NewCommand()", func() {
	var (
		dir  string
		args []string
	)

	BeforeEach(func() {
		path, remove := boltdbtest.TempFile()
		DeferCleanup(remove)

		dir = filepath.Dir(path)
		args = []string{"--path", path, "--output", "json"}
	})

	run := func(extra ...string) string {
		out, _, err := execute(append(args, extra...)...)
		Expect(err).ShouldNot(HaveOccurred())
		return out
	}

	deployFiles := func(files ...string) []deployResult {
		var results []deployResult
		decode(run(append([]string{"deploy"}, files...)...), &results)
		return results
	}

	show := func(extra ...string) processSummary {
		var s processSummary
		decode(run(append([]string{"show"}, extra...)...), &s)
		return s
	}

	Describe("deploy", func() {
		It("assigns the first version and a new key to each process", func() {
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))
			refund := writeFile(dir, "refund.bpmn", resource("refund", "payment"))

			Expect(deployFiles(order, refund)).To(Equal([]deployResult{
				{File: order, ProcessID: "order", Version: 1, Key: 1, Status: statusDeployed},
				{File: refund, ProcessID: "refund", Version: 1, Key: 2, Status: statusDeployed},
			}))

			s := show("refund")
			Expect(s.DeploymentKey).To(BeEquivalentTo(3))
			Expect(s.ResourceName).To(Equal("refund.bpmn"))
			Expect(s.TenantID).To(Equal(DefaultTenant))
		})

		It("does not redeploy an unchanged resource", func() {
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))
			deployFiles(order)

			Expect(deployFiles(order)).To(Equal([]deployResult{
				{File: order, ProcessID: "order", Version: 1, Key: 1, Status: statusUnchanged},
			}))
		})

		It("deploys a new version of a changed resource", func() {
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))
			deployFiles(order)

			writeFile(dir, "order.bpmn", resource("order", "invoicing"))

			// Key 2 is used by the first deployment.
			Expect(deployFiles(order)).To(Equal([]deployResult{
				{File: order, ProcessID: "order", Version: 2, Key: 3, Status: statusDeployed},
			}))
		})

		It("redeploys content that matches an older version", func() {
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))
			deployFiles(order)

			writeFile(dir, "order.bpmn", resource("order", "invoicing"))
			deployFiles(order)

			writeFile(dir, "order.bpmn", resource("order", "payment"))
			results := deployFiles(order)
			Expect(results[0].Version).To(BeEquivalentTo(3))
			Expect(results[0].Status).To(Equal(statusDeployed))
		})

		It("keeps tenants separate", func() {
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))
			deployFiles(order)

			var results []deployResult
			decode(run("--tenant", "<other>", "deploy", order), &results)
			Expect(results[0].Version).To(BeEquivalentTo(1))
			Expect(results[0].Status).To(Equal(statusDeployed))
		})

		It("returns an error if the resource is not valid BPMN", func() {
			path := writeFile(dir, "broken.bpmn", []byte("<bpmn:definitions"))

			_, _, err := execute(append(args, "deploy", path)...)
			Expect(err).To(MatchError(ContainSubstring("unable to parse BPMN document")))
		})

		It("returns an error if the resource has no executable processes", func() {
			path := writeFile(dir, "empty.bpmn", []byte(`<definitions><process id="p" isExecutable="false" /></definitions>`))

			_, _, err := execute(append(args, "deploy", path)...)
			Expect(err).To(MatchError(ContainSubstring("does not contain any executable processes")))
		})

		It("returns an error if two resources define the same process", func() {
			a := writeFile(dir, "a.bpmn", resource("order", "payment"))
			b := writeFile(dir, "b.bpmn", resource("order", "invoicing"))

			_, _, err := execute(append(args, "deploy", a, b)...)
			Expect(err).To(MatchError(ContainSubstring("process 'order' is also defined by")))

			_, _, err = execute(append(args, "show", "order")...)
			Expect(err).To(MatchError("process 'order' is not deployed"))
		})
	})

	Describe("show", func() {
		var order string

		BeforeEach(func() {
			order = writeFile(dir, "order.bpmn", resource("order", "payment"))
			deployFiles(order)
			writeFile(dir, "order.bpmn", resource("order", "invoicing"))
			deployFiles(order)
		})

		It("shows the latest version by default", func() {
			s := show("order")
			Expect(s.Version).To(BeEquivalentTo(2))
			Expect(s.Key).To(BeEquivalentTo(3))
			Expect(s.State).To(Equal("active"))
			Expect(s.Elements).To(Equal([]string{"end", "start", "task", "to-end", "to-task"}))
		})

		It("shows a specific version", func() {
			s := show("order", "--version", "1")
			Expect(s.Version).To(BeEquivalentTo(1))
			Expect(s.Key).To(BeEquivalentTo(1))
		})

		It("prints the resource", func() {
			out := run("show", "order", "--version", "1", "--resource")
			Expect(out).To(Equal(string(resource("order", "payment"))))
		})

		It("shows an element", func() {
			var e map[string]string
			decode(run("show", "order", "--element", "task"), &e)
			Expect(e).To(Equal(map[string]string{
				"id":   "task",
				"type": "ServiceTask",
			}))
		})

		It("returns an error if the element does not exist", func() {
			_, _, err := execute(append(args, "show", "order", "--element", "<unknown>")...)
			Expect(err).To(MatchError(ContainSubstring("<unknown>")))
		})

		It("returns an error if the version does not exist", func() {
			_, _, err := execute(append(args, "show", "order", "--version", "5")...)
			Expect(err).To(MatchError("version 5 of process 'order' is not deployed"))
		})

		It("writes YAML output", func() {
			out, _, err := execute("--path", args[1], "show", "order")
			Expect(err).ShouldNot(HaveOccurred())
			Expect(out).To(ContainSubstring("process_id: order\n"))
			Expect(out).To(ContainSubstring("version: 2\n"))
		})
	})

	Describe("list", func() {
		BeforeEach(func() {
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))
			refund := writeFile(dir, "refund.bpmn", resource("refund", "payment"))
			deployFiles(order, refund)
			writeFile(dir, "order.bpmn", resource("order", "invoicing"))
			deployFiles(order)
		})

		keys := func(summaries []processSummary) []uint64 {
			var keys []uint64
			for _, s := range summaries {
				keys = append(keys, s.Key)
			}
			return keys
		}

		It("lists every version in order of key", func() {
			var summaries []processSummary
			decode(run("list"), &summaries)
			Expect(keys(summaries)).To(Equal([]uint64{1, 2, 4}))
		})

		It("lists only the latest versions", func() {
			var summaries []processSummary
			decode(run("list", "--latest"), &summaries)
			Expect(keys(summaries)).To(Equal([]uint64{2, 4}))
		})

		It("lists nothing for an unknown tenant", func() {
			Expect(run("--tenant", "<other>", "list")).To(MatchJSON(`[]`))
		})
	})

	Describe("delete", func() {
		var order string

		BeforeEach(func() {
			order = writeFile(dir, "order.bpmn", resource("order", "payment"))
			deployFiles(order)
			writeFile(dir, "order.bpmn", resource("order", "invoicing"))
			deployFiles(order)
		})

		It("makes the previous version the latest", func() {
			run("delete", "3")

			s := show("order")
			Expect(s.Version).To(BeEquivalentTo(1))
		})

		It("does not reuse the version of a deleted process", func() {
			run("delete", "3")

			results := deployFiles(order)
			Expect(results[0].Version).To(BeEquivalentTo(3))
			Expect(results[0].Status).To(Equal(statusDeployed))
		})

		It("marks the process as pending deletion", func() {
			run("delete", "3", "--pending")

			s := show("order")
			Expect(s.Version).To(BeEquivalentTo(2))
			Expect(s.State).To(Equal("pending-deletion"))
		})

		It("returns an error if the key is invalid", func() {
			_, _, err := execute(append(args, "delete", "abc")...)
			Expect(err).To(MatchError("invalid key 'abc'"))
		})

		It("returns an error if there is no process with the key", func() {
			_, _, err := execute(append(args, "delete", "100")...)
			Expect(err).To(MatchError("there is no process with key 100"))
		})
	})

	Describe("schema", func() {
		It("returns an error when used with the bolt driver", func() {
			_, _, err := execute(append(args, "schema", "create")...)
			Expect(err).To(MatchError("the bolt driver does not use an SQL database"))
		})
	})

	When("writing logs and metrics", func() {
		It("writes debug logs to the log file", func() {
			logFile := filepath.Join(dir, "procstore.log")
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))

			run("--log-file", logFile, "--debug", "deploy", order)

			data, err := os.ReadFile(logFile)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("stored process 'order' v1 with key 1"))
		})

		It("prefixes log messages with the store name", func() {
			logFile := filepath.Join(dir, "procstore.log")
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))

			run("--log-file", logFile, "--debug", "--store", "orders", "deploy", order)

			data, err := os.ReadFile(logFile)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(MatchRegexp(`orders \| deployment \| @.* \| stored process 'order' v1`))
		})

		It("writes metrics to the metrics file", func() {
			metricsFile := filepath.Join(dir, "metrics.prom")
			order := writeFile(dir, "order.bpmn", resource("order", "payment"))
			deployFiles(order)

			run("--metrics-file", metricsFile, "show", "order")

			data, err := os.ReadFile(metricsFile)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(string(data)).To(MatchRegexp(`(?m)^procstore_process_reconstructions_total [1-9]`))
		})
	})
})

var _ = Describe("func loadConfig()", func() {
	It("returns an error if the driver is not supported", func() {
		_, _, err := execute("--driver", "<unknown>", "list")
		Expect(err).To(MatchError("unsupported driver '<unknown>'"))
	})

	It("requires a DSN for the sqlite driver", func() {
		_, _, err := execute("--driver", SQLiteDriver, "list")
		Expect(err).To(MatchError("the sqlite driver requires a DSN"))
	})

	It("reads the configuration from the environment", func() {
		GinkgoT().Setenv("PROCSTORE_OUTPUT", "xml")

		_, _, err := execute("list")
		Expect(err).To(MatchError("unsupported output format 'xml'"))
	})

	It("reads the configuration file", func() {
		path, remove := boltdbtest.TempFile()
		DeferCleanup(remove)

		config := writeFile(filepath.Dir(path), "procstore.yaml", []byte("cache-capacity: 0\n"))

		_, _, err := execute("--config", config, "list")
		Expect(err).To(MatchError("cache capacity must be positive"))
	})
})
