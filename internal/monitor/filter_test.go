package monitor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/monitor"
)

var _ = Describe("Filter", func() {
	var filter *monitor.Filter

	BeforeEach(func() {
		filter = monitor.NewFilter(config.MonitoringConfig{
			BotUsernames:   []string{"slackbot", "github"},
			DomainKeywords: []string{"quicksight", "dbt", "snowflake"},
			OwnerUsername:  "maria",
		})
	})

	Describe("IsBot", func() {
		It("matches configured bot usernames case-insensitively", func() {
			Expect(filter.IsBot(monitor.RawMessage{Username: "GitHub"})).To(BeTrue())
		})

		It("matches the bot_message subtype", func() {
			Expect(filter.IsBot(monitor.RawMessage{Subtype: "bot_message"})).To(BeTrue())
		})

		It("matches any message carrying a bot id", func() {
			Expect(filter.IsBot(monitor.RawMessage{BotID: "B042"})).To(BeTrue())
		})

		It("passes human messages through", func() {
			Expect(filter.IsBot(monitor.RawMessage{Username: "ines", User: "U1"})).To(BeFalse())
		})
	})

	Describe("IsFYI", func() {
		It("detects cc and fyi markers", func() {
			Expect(filter.IsFYI("cc: @maria for visibility")).To(BeTrue())
			Expect(filter.IsFYI("FYI: the dashboard moved")).To(BeTrue())
			Expect(filter.IsFYI("looping in @maria here")).To(BeTrue())
		})

		It("ignores ordinary text", func() {
			Expect(filter.IsFYI("why is the load late today?")).To(BeFalse())
		})
	})

	Describe("IsQuestion", func() {
		It("detects question marks and interrogative phrases", func() {
			Expect(filter.IsQuestion("is the sync done?")).To(BeTrue())
			Expect(filter.IsQuestion("wondering if the numbers moved")).To(BeTrue())
			Expect(filter.IsQuestion("not sure where this metric comes from")).To(BeTrue())
		})

		It("ignores statements", func() {
			Expect(filter.IsQuestion("the sync finished at noon")).To(BeFalse())
		})
	})

	Describe("HasDomainKeyword", func() {
		It("matches configured keywords case-insensitively", func() {
			Expect(filter.HasDomainKeyword("the DBT run is red")).To(BeTrue())
		})

		It("ignores unrelated text", func() {
			Expect(filter.HasDomainKeyword("lunch plans today")).To(BeFalse())
		})
	})

	Describe("IsQuotedMention", func() {
		It("is false when the owner is not mentioned at all", func() {
			Expect(filter.IsQuotedMention("```some logs```")).To(BeFalse())
		})

		It("is false for a plain mention", func() {
			Expect(filter.IsQuotedMention("@maria can you check the load?")).To(BeFalse())
		})

		It("detects a mention inside a fenced code block", func() {
			text := "look at this:\n```\nerror: ping @maria failed\n```\nthoughts?"
			Expect(filter.IsQuotedMention(text)).To(BeTrue())
		})

		It("detects a mention inside an inline code span", func() {
			Expect(filter.IsQuotedMention("the alert says `@maria timeout` again")).To(BeTrue())
		})

		It("detects a mention on a block-quoted line", func() {
			Expect(filter.IsQuotedMention("> @maria said the job was fine\nbut it was not")).To(BeTrue())
		})

		It("detects a mention on a quote line ending at end of input", func() {
			Expect(filter.IsQuotedMention("as discussed:\n> @maria will follow up")).To(BeTrue())
		})

		It("does not treat an unclosed fence as a region", func() {
			Expect(filter.IsQuotedMention("```\n@maria is this broken?")).To(BeFalse())
		})

		It("does not treat an unclosed code span as a region", func() {
			Expect(filter.IsQuotedMention("a stray ` here, @maria any idea?")).To(BeFalse())
		})

		It("is false when the mention sits outside the quoted regions", func() {
			text := "```\nold log line\n```\n@maria is this still happening?"
			Expect(filter.IsQuotedMention(text)).To(BeFalse())
		})

		It("flags a message where any occurrence is quoted", func() {
			text := "> @maria said so\n@maria is that right?"
			Expect(filter.IsQuotedMention(text)).To(BeTrue())
		})
	})
})
