package llm

import "fmt"

// Prompt is the system/user message pair sent to the provider.
type Prompt struct {
	System string
	User   string
}

const systemPrompt = "You are a motivational quote generator for programmers and developers."

var languageNames = map[string]string{
	"de": "German",
	"fr": "French",
	"es": "Spanish",
}

// LanguageName maps a language code to the name used in the prompt.
// Anything not in the table, "en" included, is English.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return "English"
}

// BuildPrompt creates the quote prompt for a language code.
func BuildPrompt(language string) Prompt {
	return Prompt{
		System: systemPrompt,
		User: fmt.Sprintf("Generate a short, inspiring motivational quote for programmers or developers. "+
			"The quote should be in %s. "+
			"Return ONLY the quote text without any additional information, attribution, or explanation.",
			LanguageName(language)),
	}
}
