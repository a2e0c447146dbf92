package monitor_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"threadwatch.app/scout/core/config"
	"threadwatch.app/scout/internal/monitor"
)

type fakeSearch struct {
	fn func(query string, count, page int) (monitor.SearchPage, error)
}

func (f *fakeSearch) SearchMessages(_ context.Context, query string, count, page int) (monitor.SearchPage, error) {
	return f.fn(query, count, page)
}

func hit(channel, ts, text string) monitor.RawMessage {
	return monitor.RawMessage{
		TS:      ts,
		Text:    text,
		User:    "U1",
		Channel: monitor.RawChannel{ID: channel, Name: "data-eng"},
	}
}

func onePage(matches ...monitor.RawMessage) monitor.SearchPage {
	return monitor.SearchPage{Matches: matches, Page: 1, TotalPages: 1}
}

var _ = Describe("Ranker", func() {
	cfg := config.MonitoringConfig{
		Channels:       []string{"data-eng"},
		DomainKeywords: []string{"dbt"},
		BotUsernames:   []string{"slackbot"},
		OwnerUsername:  "maria",
		LookbackDays:   7,
	}

	It("ranks candidates across strategies, highest score first", func() {
		client := &fakeSearch{fn: func(query string, _, _ int) (monitor.SearchPage, error) {
			switch {
			case strings.HasPrefix(query, "@maria"):
				return onePage(hit("C01", "1.0", "@maria why is the dbt run red?")), nil
			case strings.Contains(query, "in:#data-eng") && !strings.Contains(query, "("):
				return onePage(hit("C02", "2.0", "is the report refreshed?")), nil
			default:
				return monitor.SearchPage{}, nil
			}
		}}

		ranker := monitor.NewRanker(cfg, client)
		got, _ := ranker.FindUnanswered(context.Background(), monitor.NewAnsweredSet())

		Expect(got).To(HaveLen(2))
		Expect(got[0].Score).To(Equal(135))
		Expect(got[0].ChannelID).To(Equal("C01"))
		Expect(got[1].Score).To(Equal(70))
	})

	It("collapses the same thread found by multiple strategies", func() {
		client := &fakeSearch{fn: func(query string, _, _ int) (monitor.SearchPage, error) {
			switch {
			case strings.HasPrefix(query, "@maria"):
				return onePage(hit("C01", "1.0", "@maria why is the dbt run red?")), nil
			case strings.Contains(query, "in:#data-eng") && !strings.Contains(query, "("):
				return onePage(hit("C01", "1.0", "@maria why is the dbt run red?")), nil
			default:
				return monitor.SearchPage{}, nil
			}
		}}

		ranker := monitor.NewRanker(cfg, client)
		got, _ := ranker.FindUnanswered(context.Background(), monitor.NewAnsweredSet())

		Expect(got).To(HaveLen(1))
		Expect(got[0].Score).To(Equal(135))
		Expect(got[0].SourceStrategy).To(Equal("direct_mentions"))
	})

	It("drops bot-authored hits", func() {
		client := &fakeSearch{fn: func(query string, _, _ int) (monitor.SearchPage, error) {
			if strings.HasPrefix(query, "@maria") {
				return onePage(monitor.RawMessage{
					TS: "1.0", Text: "@maria build failed?", Username: "slackbot",
					Channel: monitor.RawChannel{ID: "C01"},
				}), nil
			}
			return monitor.SearchPage{}, nil
		}}

		ranker := monitor.NewRanker(cfg, client)
		got, _ := ranker.FindUnanswered(context.Background(), monitor.NewAnsweredSet())
		Expect(got).To(BeEmpty())
	})

	It("filters threads the owner already responded to", func() {
		client := &fakeSearch{fn: func(query string, _, _ int) (monitor.SearchPage, error) {
			switch {
			case strings.HasPrefix(query, "@maria"):
				return onePage(hit("C01", "1.0", "@maria why is the dbt run red?")), nil
			case strings.HasPrefix(query, "from:@maria"):
				return onePage(monitor.RawMessage{
					TS: "5.0", ThreadTS: "1.0", Text: "on it",
					Channel: monitor.RawChannel{ID: "C01"},
				}), nil
			default:
				return monitor.SearchPage{}, nil
			}
		}}

		ranker := monitor.NewRanker(cfg, client)
		got, answered := ranker.FindUnanswered(context.Background(), monitor.NewAnsweredSet())

		Expect(got).To(BeEmpty())
		Expect(answered.IsAnswered("C01:1.0")).To(BeTrue())
	})

	It("filters threads answered in earlier cycles", func() {
		client := &fakeSearch{fn: func(query string, _, _ int) (monitor.SearchPage, error) {
			if strings.HasPrefix(query, "@maria") {
				return onePage(hit("C01", "1.0", "@maria why is the dbt run red?")), nil
			}
			return monitor.SearchPage{}, nil
		}}

		ranker := monitor.NewRanker(cfg, client)
		got, _ := ranker.FindUnanswered(context.Background(), monitor.NewAnsweredSet("C01:1.0"))
		Expect(got).To(BeEmpty())
	})

	It("survives a failing strategy", func() {
		client := &fakeSearch{fn: func(query string, _, _ int) (monitor.SearchPage, error) {
			if strings.HasPrefix(query, "@maria") {
				return monitor.SearchPage{}, errors.New("rate limited")
			}
			if strings.Contains(query, "in:#data-eng") && !strings.Contains(query, "(") {
				return onePage(hit("C02", "2.0", "is the report refreshed?")), nil
			}
			return monitor.SearchPage{}, nil
		}}

		ranker := monitor.NewRanker(cfg, client)
		got, _ := ranker.FindUnanswered(context.Background(), monitor.NewAnsweredSet())

		Expect(got).To(HaveLen(1))
		Expect(got[0].ChannelID).To(Equal("C02"))
	})

	It("keeps partial results when pagination fails midway", func() {
		client := &fakeSearch{fn: func(query string, _, page int) (monitor.SearchPage, error) {
			if !strings.HasPrefix(query, "@maria") {
				return monitor.SearchPage{}, nil
			}
			if page == 1 {
				return monitor.SearchPage{
					Matches:    []monitor.RawMessage{hit("C01", "1.0", "@maria why is the dbt run red?")},
					Page:       1,
					TotalPages: 3,
				}, nil
			}
			return monitor.SearchPage{}, errors.New("rate limited")
		}}

		ranker := monitor.NewRanker(cfg, client)
		got, _ := ranker.FindUnanswered(context.Background(), monitor.NewAnsweredSet())

		Expect(got).To(HaveLen(1))
	})
})
