// Package translation maintains the per-session conversation context used to
// keep consecutive translations consistent.
package translation

import (
	"strings"
	"sync"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate"
)

// DefaultMaxExchanges bounds the history ring when no capacity is configured.
const DefaultMaxExchanges = 10

// Context holds the bounded exchange history and glossary for one session.
// The pipeline coordinator is the only writer; BuildPrompt never mutates.
type Context struct {
	mu           sync.Mutex
	maxExchanges int
	history      []translate.Exchange
	glossary     map[string]string
}

// NewContext creates an empty context with the given history capacity.
func NewContext(maxExchanges int) *Context {
	if maxExchanges <= 0 {
		maxExchanges = DefaultMaxExchanges
	}
	return &Context{
		maxExchanges: maxExchanges,
		glossary:     make(map[string]string),
	}
}

// AppendExchange records a completed source/translation pair, evicting the
// oldest entry once the ring is full.
func (c *Context) AppendExchange(sourceText, translatedText string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.history = append(c.history, translate.Exchange{
		Source:     sourceText,
		Translated: translatedText,
	})
	if len(c.history) > c.maxExchanges {
		c.history = c.history[len(c.history)-c.maxExchanges:]
	}
}

// AddGlossaryTerm registers a preserved term. Keys are case-insensitive and
// the last write wins.
func (c *Context) AddGlossaryTerm(term, translation string) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.glossary[term] = translation
}

// SeedGlossary merges stored terms in bulk, typically at session start.
func (c *Context) SeedGlossary(terms map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for term, translation := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			c.glossary[term] = translation
		}
	}
}

// BuildPrompt snapshots the recent history and glossary for one translation
// request. It never mutates context state.
func (c *Context) BuildPrompt(text string) translate.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := make([]translate.Exchange, len(c.history))
	copy(history, c.history)

	glossary := make(map[string]string, len(c.glossary))
	for term, translation := range c.glossary {
		glossary[term] = translation
	}

	return translate.Prompt{
		History:  history,
		Glossary: glossary,
	}
}

// HistoryLen reports the number of retained exchanges.
func (c *Context) HistoryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// GlossaryLen reports the number of glossary terms.
func (c *Context) GlossaryLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.glossary)
}
