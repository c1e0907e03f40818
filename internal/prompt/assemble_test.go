package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sectionNames(sections []Section) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name
	}
	return names
}

func TestAssembleSectionOrder(t *testing.T) {
	res := Assemble(Input{
		Base:              "BASE",
		Options:           []string{"OPT1", "OPT2"},
		Guardrails:        []string{"GR1"},
		ExtraInstructions: "EXTRA",
	})

	assert.Equal(t, "BASE\n\nOPT1 OPT2\n\nGR1\n\nEXTRA", res.FullPrompt)
	assert.Equal(t,
		[]string{SectionBase, SectionOptions, SectionGuardrails, SectionExtraInstructions},
		sectionNames(res.Sections))
}

func TestAssembleNormalizesAndDropsEmptySections(t *testing.T) {
	res := Assemble(Input{
		Base:    "  BASE\r\n",
		Options: []string{"  ", "OPT\r\n"},
	})

	assert.Equal(t, "BASE\n\nOPT", res.FullPrompt)
	assert.Equal(t, []string{SectionBase, SectionOptions}, sectionNames(res.Sections))
	assert.Equal(t, "OPT", res.Sections[1].Text)
}

func TestAssembleBaseOnly(t *testing.T) {
	res := Assemble(Input{
		Base:              "Remove clutter from the kitchen.",
		Options:           []string{"", "\r\n"},
		Guardrails:        nil,
		ExtraInstructions: "   ",
	})

	assert.Equal(t, "Remove clutter from the kitchen.", res.FullPrompt)
	require.Len(t, res.Sections, 1)
	assert.Equal(t, SectionBase, res.Sections[0].Name)
}

func TestAssembleKeepsInnerLineBreaks(t *testing.T) {
	res := Assemble(Input{Base: "line one\r\nline two", ExtraInstructions: "keep\r\nthis"})
	assert.Equal(t, "line one\nline two\n\nkeep\nthis", res.FullPrompt)
}

func TestAssembleHash(t *testing.T) {
	res := Assemble(Input{Base: "BASE", Options: []string{"OPT"}})

	sum := sha256.Sum256([]byte("BASE\n\nOPT"))
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Hash)
	assert.Len(t, res.Hash, 64)
	assert.Regexp(t, "^[0-9a-f]+$", res.Hash)
}

func TestAssembleDeterministic(t *testing.T) {
	in := Input{
		Base:              "Stage the living room.",
		Options:           []string{"Scandinavian furniture", "warm lighting"},
		Guardrails:        []string{"Do not alter windows."},
		ExtraInstructions: "Add a plant.",
	}
	first := Assemble(in)
	second := Assemble(in)
	assert.Equal(t, first, second)

	variants := map[string]Input{
		"base":       {Base: "Stage the bedroom.", Options: in.Options, Guardrails: in.Guardrails, ExtraInstructions: in.ExtraInstructions},
		"options":    {Base: in.Base, Options: []string{"Scandinavian furniture"}, Guardrails: in.Guardrails, ExtraInstructions: in.ExtraInstructions},
		"guardrails": {Base: in.Base, Options: in.Options, Guardrails: []string{"Keep floors."}, ExtraInstructions: in.ExtraInstructions},
		"extra":      {Base: in.Base, Options: in.Options, Guardrails: in.Guardrails, ExtraInstructions: "Add two plants."},
	}
	for name, v := range variants {
		t.Run(name, func(t *testing.T) {
			got := Assemble(v)
			assert.NotEqual(t, first.Hash, got.Hash)
			assert.NotEqual(t, first.FullPrompt, got.FullPrompt)
		})
	}
}

func TestAssembleConcurrent(t *testing.T) {
	in := Input{Base: "BASE", Options: []string{"A", "B"}, ExtraInstructions: "X"}
	want := Assemble(in)

	var wg sync.WaitGroup
	results := make([]Result, 32)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Assemble(in)
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, want, r)
	}
}
