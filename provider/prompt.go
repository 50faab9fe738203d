package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/NextAI9707/XRAG/langmeta"
)

// DefaultSystemPrompt is sent to LLM providers unless Config.SystemPrompt
// overrides it. {{sourceLang}} and {{targetLang}} are replaced with English
// language names.
const DefaultSystemPrompt = `You are a professional medical translator. You are translating short texts taken from a clinical knowledge base: disease and symptom names, drug names, relation labels and brief descriptions.

TRANSLATION PRINCIPLES:
- Translate from {{sourceLang}} into {{targetLang}}.
- Use the standard clinical terminology of {{targetLang}}; prefer established medical terms over literal renderings.
- Some entries already contain approved {{targetLang}} terminology. Keep those parts exactly as they are.
- Keep codes, identifiers, numbers, units and abbreviations such as "CID" or "mg" unchanged.
- Do not add explanations, notes or alternatives.

TECHNICAL REQUIREMENTS:
- Return ONLY a JSON array of translated strings, one for each input entry, in the same order.
- Return ONLY the JSON array, no explanations or markdown code blocks.`

var markdownCodeBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// resolvedPrompt fills the language placeholders of prompt (or the default).
func resolvedPrompt(prompt, source, target string) string {
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}
	if source == "" {
		source = "en"
	}
	r := strings.NewReplacer(
		"{{sourceLang}}", langmeta.Resolve(source).Name,
		"{{targetLang}}", langmeta.Resolve(target).Name,
	)
	return r.Replace(prompt)
}

// userPrompt numbers the texts one per line.
func userPrompt(texts []string) string {
	var b strings.Builder
	b.WriteString("Translate these entries:\n\n")
	for i, t := range texts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, escapeForPrompt(t))
	}
	fmt.Fprintf(&b, "\nReturn a JSON array with exactly %d translated strings.", len(texts))
	return b.String()
}

var promptEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
)

// escapeForPrompt quotes s so each entry stays on one unambiguous line.
func escapeForPrompt(s string) string {
	return `"` + promptEscaper.Replace(s) + `"`
}

// parseTranslations extracts a JSON array of strings from a model reply.
// The length is not checked here; the batch translator owns that rule.
func parseTranslations(content string) ([]string, error) {
	content = strings.TrimSpace(content)

	if m := markdownCodeBlock.FindStringSubmatch(content); len(m) > 1 {
		content = m[1]
	}

	startIdx := strings.Index(content, "[")
	endIdx := strings.LastIndex(content, "]")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var translations []string
	if err := json.Unmarshal([]byte(content), &translations); err != nil {
		return nil, fmt.Errorf("failed to parse translation response as JSON array: %w\nResponse: %s", err, truncate(content, 300))
	}
	return translations, nil
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
