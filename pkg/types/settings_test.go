package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsPreservesUnknownKeys(t *testing.T) {
	in := `{"prompt_hash":"abc","room":{"width":4.2,"height":3},"furniture_spec_id":17,` +
		`"big":12345678901234567890,"flags":[1,"x",true],"enabled":true,"note":null,"tags":["a","b"],` +
		`"sparse":["a",null],"nulls":[null],"mixed":["a",2],"empty":[]}`

	var s Settings
	require.NoError(t, json.Unmarshal([]byte(in), &s))

	assert.Equal(t, "abc", s.String(SettingPromptHash))
	assert.Equal(t, KindRaw, s["room"].Kind())
	assert.Equal(t, KindRaw, s["flags"].Kind())
	assert.Equal(t, KindNull, s["note"].Kind())
	assert.Equal(t, []string{"a", "b"}, s.Strings("tags"))
	assert.Equal(t, KindRaw, s["sparse"].Kind(), "null elements are not strings")
	assert.Equal(t, KindRaw, s["nulls"].Kind())
	assert.Equal(t, KindRaw, s["mixed"].Kind())

	n, ok := s["furniture_spec_id"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, float64(17), n)

	b, ok := s["enabled"].AsBool()
	require.True(t, ok)
	assert.True(t, b)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
	assert.Contains(t, string(out), "12345678901234567890", "large integers keep their digits")
}

func TestSettingsMergeIsShallowAndCopies(t *testing.T) {
	base := Settings{"a": StringValue("1"), "b": StringValue("2")}
	merged := base.Merge(Settings{"b": StringValue("3"), "c": BoolValue(true)})

	assert.Equal(t, "1", merged.String("a"))
	assert.Equal(t, "3", merged.String("b"))
	assert.Equal(t, "2", base.String("b"), "merge must not modify the receiver")
	assert.Len(t, base, 2)
}

func TestValueAccessorsRejectOtherKinds(t *testing.T) {
	v := StringValue("x")
	_, ok := v.AsNumber()
	assert.False(t, ok)
	_, ok = v.AsBool()
	assert.False(t, ok)
	_, ok = v.AsStrings()
	assert.False(t, ok)

	assert.Equal(t, KindNull, RawValue(json.RawMessage(`{bad`)).Kind())
}

func TestRecipeMerge(t *testing.T) {
	base := Recipe{
		BasePrompt:   "stage the living room",
		InjectorIDs:  []string{"inj-1"},
		GuardrailIDs: []string{"gr-1", "gr-2"},
		Settings:     Settings{SettingPromptHash: StringValue("h1"), "style": StringValue("modern")},
	}

	t.Run("nil patch copies", func(t *testing.T) {
		out := base.Merge(nil)
		assert.Equal(t, base, out)
		out.InjectorIDs[0] = "changed"
		assert.Equal(t, "inj-1", base.InjectorIDs[0])
	})

	t.Run("patch overrides named fields only", func(t *testing.T) {
		prompt := "stage the bedroom"
		out := base.Merge(&RecipePatch{
			BasePrompt: &prompt,
			Settings:   Settings{"style": StringValue("rustic")},
		})
		assert.Equal(t, "stage the bedroom", out.BasePrompt)
		assert.Equal(t, []string{"gr-1", "gr-2"}, out.GuardrailIDs)
		assert.Equal(t, "rustic", out.Settings.String("style"))
		assert.Equal(t, "h1", out.Settings.String(SettingPromptHash))
		assert.Equal(t, "modern", base.Settings.String("style"))
	})

	t.Run("empty slices replace", func(t *testing.T) {
		out := base.Merge(&RecipePatch{GuardrailIDs: []string{}})
		assert.Empty(t, out.GuardrailIDs)
	})
}
