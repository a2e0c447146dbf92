package monitor_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"threadwatch.app/scout/internal/monitor"
)

var _ = Describe("ParseMessage", func() {
	strategy := monitor.SearchStrategy{Name: "channel_questions"}

	It("rejects hits without a timestamp or channel", func() {
		_, ok := monitor.ParseMessage(monitor.RawMessage{TS: "1.0"}, strategy)
		Expect(ok).To(BeFalse())

		_, ok = monitor.ParseMessage(monitor.RawMessage{Channel: monitor.RawChannel{ID: "C01"}}, strategy)
		Expect(ok).To(BeFalse())
	})

	It("uses thread_ts as the thread identity when present", func() {
		msg, ok := monitor.ParseMessage(monitor.RawMessage{
			TS:       "1756700100.000200",
			ThreadTS: "1756700000.000100",
			Channel:  monitor.RawChannel{ID: "C01", Name: "data-eng"},
		}, strategy)

		Expect(ok).To(BeTrue())
		Expect(msg.ThreadID).To(Equal("1756700000.000100"))
		Expect(msg.MessageID()).To(Equal("C01:1756700000.000100"))
	})

	It("falls back to the permalink query parameter", func() {
		msg, ok := monitor.ParseMessage(monitor.RawMessage{
			TS:        "1756700100.000200",
			Permalink: "https://chat.example.com/archives/C01/p1756700100000200?thread_ts=1756700000.000100&cid=C01",
			Channel:   monitor.RawChannel{ID: "C01"},
		}, strategy)

		Expect(ok).To(BeTrue())
		Expect(msg.ThreadID).To(Equal("1756700000.000100"))
	})

	It("falls back to the permalink path segment", func() {
		msg, ok := monitor.ParseMessage(monitor.RawMessage{
			TS:        "1756700100.000200",
			Permalink: "https://chat.example.com/archives/C01/p1756700000000100",
			Channel:   monitor.RawChannel{ID: "C01"},
		}, strategy)

		Expect(ok).To(BeTrue())
		Expect(msg.ThreadID).To(Equal("1756700000.000100"))
	})

	It("treats an unthreaded hit as its own thread root", func() {
		msg, ok := monitor.ParseMessage(monitor.RawMessage{
			TS:      "1756700100.000200",
			Channel: monitor.RawChannel{ID: "C01"},
		}, strategy)

		Expect(ok).To(BeTrue())
		Expect(msg.ThreadID).To(Equal("1756700100.000200"))
	})

	It("parses the epoch timestamp", func() {
		msg, ok := monitor.ParseMessage(monitor.RawMessage{
			TS:      "1756700000.000100",
			Channel: monitor.RawChannel{ID: "C01"},
		}, strategy)

		Expect(ok).To(BeTrue())
		Expect(msg.Timestamp).To(BeTemporally("~", time.Unix(1756700000, 0).UTC(), time.Second))
	})

	It("tags the message with the producing strategy", func() {
		msg, _ := monitor.ParseMessage(monitor.RawMessage{
			TS:      "1756700100.000200",
			Channel: monitor.RawChannel{ID: "C01"},
		}, strategy)

		Expect(msg.SourceStrategy).To(Equal("channel_questions"))
	})
})
