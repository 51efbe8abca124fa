package translation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHistoryRing(t *testing.T) {
	ctx := NewContext(3)

	for i := 0; i < 5; i++ {
		ctx.AppendExchange(fmt.Sprintf("source-%d", i), fmt.Sprintf("target-%d", i))
	}

	assert.Equal(t, 3, ctx.HistoryLen())

	prompt := ctx.BuildPrompt("hello")
	require.Len(t, prompt.History, 3)
	assert.Equal(t, "source-2", prompt.History[0].Source)
	assert.Equal(t, "source-4", prompt.History[2].Source)
	assert.Equal(t, "target-4", prompt.History[2].Translated)
}

func TestContextDefaultCapacity(t *testing.T) {
	ctx := NewContext(0)
	for i := 0; i < DefaultMaxExchanges+5; i++ {
		ctx.AppendExchange("s", "t")
	}
	assert.Equal(t, DefaultMaxExchanges, ctx.HistoryLen())
}

func TestContextGlossaryCaseInsensitive(t *testing.T) {
	ctx := NewContext(10)

	ctx.AddGlossaryTerm("JHU", "Johns Hopkins")
	ctx.AddGlossaryTerm("jhu", "JHU")

	prompt := ctx.BuildPrompt("x")
	require.Len(t, prompt.Glossary, 1)
	assert.Equal(t, "JHU", prompt.Glossary["jhu"])
}

func TestContextGlossaryIgnoresEmptyTerm(t *testing.T) {
	ctx := NewContext(10)
	ctx.AddGlossaryTerm("  ", "nothing")
	assert.Equal(t, 0, ctx.GlossaryLen())
}

func TestContextSeedGlossary(t *testing.T) {
	ctx := NewContext(10)
	ctx.AddGlossaryTerm("foo", "bar")
	ctx.SeedGlossary(map[string]string{
		"Foo":  "baz",
		"Quux": "qux",
		"":     "dropped",
	})

	prompt := ctx.BuildPrompt("x")
	require.Len(t, prompt.Glossary, 2)
	assert.Equal(t, "baz", prompt.Glossary["foo"])
	assert.Equal(t, "qux", prompt.Glossary["quux"])
}

func TestBuildPromptSnapshotIsolation(t *testing.T) {
	ctx := NewContext(10)
	ctx.AppendExchange("a", "b")
	ctx.AddGlossaryTerm("term", "value")

	prompt := ctx.BuildPrompt("x")
	prompt.History[0].Source = "mutated"
	prompt.Glossary["term"] = "mutated"

	fresh := ctx.BuildPrompt("x")
	assert.Equal(t, "a", fresh.History[0].Source)
	assert.Equal(t, "value", fresh.Glossary["term"])
}
