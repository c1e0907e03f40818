package types

// Recipe holds the prompt-construction inputs that produced a version's
// generation request. Regenerations copy it verbatim.
type Recipe struct {
	BasePrompt   string   `json:"base_prompt"`
	InjectorIDs  []string `json:"injector_ids"`
	GuardrailIDs []string `json:"guardrail_ids"`
	Settings     Settings `json:"settings"`
}

// RecipePatch describes tweaks applied by Duplicate. Nil fields keep the
// source recipe's value; Settings keys are written over the source's.
type RecipePatch struct {
	BasePrompt   *string
	InjectorIDs  []string
	GuardrailIDs []string
	Settings     Settings
}

// Clone returns a deep copy of the recipe.
func (r Recipe) Clone() Recipe {
	return Recipe{
		BasePrompt:   r.BasePrompt,
		InjectorIDs:  cloneStrings(r.InjectorIDs),
		GuardrailIDs: cloneStrings(r.GuardrailIDs),
		Settings:     r.Settings.Clone(),
	}
}

// Merge returns a copy of the recipe with patch applied.
func (r Recipe) Merge(patch *RecipePatch) Recipe {
	out := r.Clone()
	if patch == nil {
		return out
	}
	if patch.BasePrompt != nil {
		out.BasePrompt = *patch.BasePrompt
	}
	if patch.InjectorIDs != nil {
		out.InjectorIDs = cloneStrings(patch.InjectorIDs)
	}
	if patch.GuardrailIDs != nil {
		out.GuardrailIDs = cloneStrings(patch.GuardrailIDs)
	}
	if patch.Settings != nil {
		out.Settings = out.Settings.Merge(patch.Settings)
	}
	return out
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	cp := make([]string, len(ss))
	copy(cp, ss)
	return cp
}
