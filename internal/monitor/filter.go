package monitor

import (
	"strings"

	"threadwatch.app/scout/core/config"
)

// Filter classifies raw messages as bot noise, informational mentions,
// quoted references, or candidate questions. Every predicate is a pure
// function of the text/metadata plus the injected configuration; the
// Ranker decides how predicates combine.
type Filter struct {
	botUsernames   map[string]struct{}
	domainKeywords []string
	owner          string
}

var fyiMarkers = []string{
	"cc:", "fyi:", "looping in @", "adding @", "copying @", "cc @", "cc'ing",
}

var questionPhrases = []string{
	"?", "wondering", "not sure", "help", "how do", "what is",
	"where", "why", "can you", "could you", "do you know", "any idea",
}

func NewFilter(cfg config.MonitoringConfig) *Filter {
	bots := make(map[string]struct{}, len(cfg.BotUsernames))
	for _, name := range cfg.BotUsernames {
		bots[strings.ToLower(name)] = struct{}{}
	}
	keywords := make([]string, len(cfg.DomainKeywords))
	for i, kw := range cfg.DomainKeywords {
		keywords[i] = strings.ToLower(kw)
	}
	return &Filter{
		botUsernames:   bots,
		domainKeywords: keywords,
		owner:          strings.ToLower(cfg.OwnerUsername),
	}
}

// IsBot reports whether a raw search hit was authored by a bot: username
// on the configured list, an automated-message subtype, or a bot id field.
func (f *Filter) IsBot(msg RawMessage) bool {
	if _, ok := f.botUsernames[strings.ToLower(msg.Username)]; ok {
		return true
	}
	if msg.Subtype == "bot_message" {
		return true
	}
	return msg.BotID != ""
}

// IsFYI detects informational mentions (cc, fyi, looping in, etc.)
// that name the owner without asking anything.
func (f *Filter) IsFYI(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range fyiMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsQuestion detects whether text contains a question or request for help.
func (f *Filter) IsQuestion(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range questionPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// HasDomainKeyword checks text against the configured keyword list.
func (f *Filter) HasDomainKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range f.domainKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsQuotedMention reports whether the owner's mention token appears inside
// a fenced code block, an inline code span, or a block-quoted line. People
// pasting logs or quoting someone else are not asking for attention.
func (f *Filter) IsQuotedMention(text string) bool {
	if f.owner == "" {
		return false
	}
	mention := "@" + f.owner
	lower := strings.ToLower(text)
	if !strings.Contains(lower, mention) {
		return false
	}

	regions := quotedRegions(text)
	for idx := strings.Index(lower, mention); idx >= 0; {
		for _, r := range regions {
			if idx >= r.start && idx < r.end {
				return true
			}
		}
		next := strings.Index(lower[idx+1:], mention)
		if next < 0 {
			break
		}
		idx += 1 + next
	}
	return false
}

type span struct {
	start, end int
}

// quotedRegions locates fenced code blocks, inline code spans, and
// block-quoted lines in a single left-to-right scan. Unclosed fences and
// spans do not form a region; a quote line ending at EOF does.
func quotedRegions(text string) []span {
	var regions []span

	inFence := false
	inCode := false
	fenceStart := 0
	codeStart := 0

	lineStart := 0
	quoteLine := false
	lineSeen := false // first non-space byte of the line consumed

	closeLine := func(end int) {
		if quoteLine {
			regions = append(regions, span{lineStart, end})
		}
		quoteLine = false
		lineSeen = false
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		if c == '\n' {
			closeLine(i)
			lineStart = i + 1
			continue
		}

		if !lineSeen && c != ' ' && c != '\t' {
			lineSeen = true
			if c == '>' && !inFence && !inCode {
				quoteLine = true
			}
		}

		if c == '`' {
			if i+2 < len(text) && text[i+1] == '`' && text[i+2] == '`' {
				if inFence {
					regions = append(regions, span{fenceStart, i + 3})
					inFence = false
				} else if !inCode {
					inFence = true
					fenceStart = i
				}
				i += 2
				continue
			}
			if !inFence {
				if inCode {
					regions = append(regions, span{codeStart, i + 1})
					inCode = false
				} else {
					inCode = true
					codeStart = i
				}
			}
		}
	}
	closeLine(len(text))

	return regions
}

// AnsweredSet holds the thread-identity keys the owner has already
// responded to, merged from the filter-only strategy's hits and the
// persisted cross-cycle cache.
type AnsweredSet map[string]struct{}

func NewAnsweredSet(ids ...string) AnsweredSet {
	s := make(AnsweredSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s AnsweredSet) Add(messageID string) {
	s[messageID] = struct{}{}
}

// Merge adds every member of other; a thread answered in either source
// is answered.
func (s AnsweredSet) Merge(other AnsweredSet) {
	for id := range other {
		s[id] = struct{}{}
	}
}

// IsAnswered reports membership of the thread-identity key.
func (s AnsweredSet) IsAnswered(messageID string) bool {
	_, ok := s[messageID]
	return ok
}
