package monitor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/model"
	"threadwatch.app/scout/internal/monitor"
)

var _ = Describe("Scorer", func() {
	var scorer *monitor.Scorer

	BeforeEach(func() {
		filter := monitor.NewFilter(config.MonitoringConfig{
			DomainKeywords: []string{"dbt", "snowflake"},
			OwnerUsername:  "maria",
		})
		scorer = monitor.NewScorer(filter)
	})

	msg := func(text string) model.CandidateMessage {
		return model.CandidateMessage{ChannelID: "C01", ThreadID: "1.0", Text: text}
	}

	DescribeTable("scoring",
		func(text string, boost, want int) {
			got := scorer.Score(msg(text), monitor.SearchStrategy{PriorityBoost: boost})
			Expect(got.Score).To(Equal(want))
		},
		Entry("direct mention with question and keyword",
			"@maria why is the dbt run red?", 100, 135),
		Entry("channel question without keyword",
			"is the report refreshed?", 50, 70),
		Entry("keyword statement, no question",
			"the snowflake load finished", 30, 35),
		Entry("plain statement loses the no-question penalty",
			"deploy done", 50, 40),
		Entry("fyi mention floors near zero",
			"fyi: numbers moved", 20, 0),
		Entry("negative sums clamp to zero",
			"cc: @maria heads up", 0, 0),
		Entry("quoted mention takes the quoted penalty",
			"> @maria said so\nis that right?", 100, 70),
	)

	It("records the contributing signals", func() {
		got := scorer.Score(msg("@maria why is the dbt run red?"), monitor.SearchStrategy{PriorityBoost: 100})
		Expect(got.Signals.IsQuestion).To(BeTrue())
		Expect(got.Signals.HasKeyword).To(BeTrue())
		Expect(got.Signals.IsFYI).To(BeFalse())
		Expect(got.Signals.IsQuoted).To(BeFalse())
		Expect(got.Signals.StrategyBase).To(Equal(100))
	})
})

var _ = Describe("Dedup", func() {
	scored := func(channel, thread string, score int) model.ScoredCandidate {
		return model.ScoredCandidate{
			CandidateMessage: model.CandidateMessage{ChannelID: channel, ThreadID: thread},
			Score:            score,
		}
	}

	It("keeps the highest score per thread", func() {
		got := monitor.Dedup([]model.ScoredCandidate{
			scored("C01", "1.0", 40),
			scored("C02", "2.0", 60),
			scored("C01", "1.0", 90),
		})
		Expect(got).To(HaveLen(2))
		Expect(got[0].Score).To(Equal(90))
		Expect(got[1].Score).To(Equal(60))
	})

	It("keeps the first-seen entry on score ties", func() {
		first := scored("C01", "1.0", 50)
		first.SourceStrategy = "channel_questions"
		second := scored("C01", "1.0", 50)
		second.SourceStrategy = "generic_data_questions"

		got := monitor.Dedup([]model.ScoredCandidate{first, second})
		Expect(got).To(HaveLen(1))
		Expect(got[0].SourceStrategy).To(Equal("channel_questions"))
	})

	It("preserves input order among surviving threads", func() {
		got := monitor.Dedup([]model.ScoredCandidate{
			scored("C01", "1.0", 10),
			scored("C02", "2.0", 80),
			scored("C03", "3.0", 30),
		})
		Expect(got[0].ChannelID).To(Equal("C01"))
		Expect(got[1].ChannelID).To(Equal("C02"))
		Expect(got[2].ChannelID).To(Equal("C03"))
	})
})

var _ = Describe("GenerateStrategies", func() {
	cfg := config.MonitoringConfig{
		Channels:       []string{"data-eng", "analytics"},
		DomainKeywords: []string{"quicksight", "dbt", "snowflake", "dashboard", "looker", "airflow", "tableau", "redshift"},
		OwnerUsername:  "maria",
	}

	It("produces the full strategy set with expected boosts", func() {
		strategies := monitor.GenerateStrategies(cfg, "2026-08-25")

		names := make(map[string]monitor.SearchStrategy, len(strategies))
		for _, s := range strategies {
			names[s.Name] = s
		}

		Expect(names["direct_mentions"].PriorityBoost).To(Equal(100))
		Expect(names["direct_mentions"].Query).To(ContainSubstring("@maria"))
		Expect(names["direct_mentions"].Query).To(ContainSubstring("after:2026-08-25"))

		Expect(names["channel_questions"].PriorityBoost).To(Equal(50))
		Expect(names["channel_questions"].Query).To(ContainSubstring("in:#data-eng in:#analytics"))

		Expect(names["generic_data_questions"].PriorityBoost).To(Equal(20))
		Expect(names["direct_messages"].PriorityBoost).To(Equal(80))
		Expect(names["direct_messages"].MarksDM).To(BeTrue())

		Expect(names["owner_responses"].FilterOnly).To(BeTrue())
		Expect(names["owner_responses"].Query).To(ContainSubstring("from:@maria"))
	})

	It("splits keywords into at most three chunks", func() {
		strategies := monitor.GenerateStrategies(cfg, "2026-08-25")

		var chunks []monitor.SearchStrategy
		for _, s := range strategies {
			if s.PriorityBoost == 30 {
				chunks = append(chunks, s)
			}
		}
		Expect(chunks).To(HaveLen(3))
		Expect(chunks[0].Query).To(ContainSubstring("quicksight OR dbt OR snowflake"))
		Expect(chunks[2].Query).To(ContainSubstring("tableau OR redshift"))
	})

	It("omits owner strategies when no owner is configured", func() {
		strategies := monitor.GenerateStrategies(config.MonitoringConfig{
			Channels:       []string{"data-eng"},
			DomainKeywords: []string{"dbt"},
		}, "2026-08-25")

		for _, s := range strategies {
			Expect(s.Name).NotTo(Equal("direct_mentions"))
			Expect(s.Name).NotTo(Equal("direct_messages"))
			Expect(s.Name).NotTo(Equal("owner_responses"))
		}
	})
})
