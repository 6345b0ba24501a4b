package loggingx_test

import (
	"bytes"
	"log"

	"github.com/dogmatiq/dodeca/logging"
	. "github.com/dogmatiq/procstore/internal/x/loggingx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("func WithPrefix()", func() {
	var (
		buf    *bytes.Buffer
		target *logging.StandardLogger
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		target = &logging.StandardLogger{
			Target:       log.New(buf, "", 0),
			CaptureDebug: true,
		}
	})

	It("adds the prefix to formatted messages", func() {
		l := WithPrefix(target, "[%s] ", "<store>")
		l.Log("value is %d", 42)

		Expect(buf.String()).To(Equal("[<store>] value is 42\n"))
	})

	It("escapes percent signs in the prefix", func() {
		l := WithPrefix(target, "[%s] ", "100%")
		l.Debug("value is %d", 42)

		Expect(buf.String()).To(Equal("[100%] value is 42\n"))
	})

	It("adds the prefix to string messages", func() {
		l := WithPrefix(target, "[%s] ", "<store>")
		l.DebugString("<message>")

		Expect(buf.String()).To(Equal("[<store>] <message>\n"))
	})

	It("forwards the debug state of the target", func() {
		l := WithPrefix(target, "")
		Expect(l.IsDebug()).To(BeTrue())

		target.CaptureDebug = false
		Expect(l.IsDebug()).To(BeFalse())
	})

	It("joins the prefixes of nested prefix loggers", func() {
		outer := WithPrefix(target, "[%s] ", "<store>")
		inner := WithPrefix(outer, "<tenant> | ")
		inner.Log("value is %d", 42)

		Expect(buf.String()).To(Equal("[<store>] <tenant> | value is 42\n"))
		Expect(Prefix(inner)).To(Equal("[<store>] <tenant> | "))
	})

	It("does not modify the outer logger when nesting", func() {
		outer := WithPrefix(target, "[%s] ", "<store>")
		WithPrefix(outer, "<tenant> | ")
		outer.LogString("<message>")

		Expect(buf.String()).To(Equal("[<store>] <message>\n"))
	})

	It("uses the default logger if the target is nil", func() {
		l := WithPrefix(nil, "<prefix> ")
		Expect(Prefix(l)).To(Equal("<prefix> "))
	})
})

var _ = Describe("func Prefix()", func() {
	It("returns an empty string for loggers without a prefix", func() {
		Expect(Prefix(logging.DiscardLogger{})).To(Equal(""))
	})
})
