package prompt

import "github.com/mesh-intelligence/stager/pkg/types"

// Mismatch describes a stored prompt hash that no longer matches the hash
// recomputed from the stored components.
type Mismatch struct {
	StoredHash   string `json:"stored_hash"`
	ComputedHash string `json:"computed_hash"`
	StoredPrompt string `json:"stored_prompt"`
	Computed     Result `json:"-"`
}

// Stamp writes the prompt components, the assembled prompt and its hash into
// the recipe's settings and sets its base prompt. Other settings are kept.
func Stamp(recipe *types.Recipe, in Input) Result {
	res := Assemble(in)
	if recipe.Settings == nil {
		recipe.Settings = types.Settings{}
	}
	recipe.BasePrompt = in.Base
	recipe.Settings[types.SettingPromptOptions] = types.StringsValue(in.Options)
	recipe.Settings[types.SettingPromptGuardrails] = types.StringsValue(in.Guardrails)
	recipe.Settings[types.SettingExtraInstructions] = types.StringValue(in.ExtraInstructions)
	recipe.Settings[types.SettingFullPrompt] = types.StringValue(res.FullPrompt)
	recipe.Settings[types.SettingPromptHash] = types.StringValue(res.Hash)
	return res
}

// InputFromRecipe rebuilds the prompt components stored in a recipe.
func InputFromRecipe(recipe types.Recipe) Input {
	return Input{
		Base:              recipe.BasePrompt,
		Options:           recipe.Settings.Strings(types.SettingPromptOptions),
		Guardrails:        recipe.Settings.Strings(types.SettingPromptGuardrails),
		ExtraInstructions: recipe.Settings.String(types.SettingExtraInstructions),
	}
}

// Verify recomputes the prompt from the recipe's stored components and
// compares its hash to the stored one. The recomputed Result is always
// returned and is the payload to send. A non-nil Mismatch means the stored
// hash disagrees; a recipe with no stored hash is never a mismatch.
func Verify(recipe types.Recipe) (Result, *Mismatch) {
	res := Assemble(InputFromRecipe(recipe))
	stored := recipe.Settings.String(types.SettingPromptHash)
	if stored == "" || stored == res.Hash {
		return res, nil
	}
	return res, &Mismatch{
		StoredHash:   stored,
		ComputedHash: res.Hash,
		StoredPrompt: recipe.Settings.String(types.SettingFullPrompt),
		Computed:     res,
	}
}
