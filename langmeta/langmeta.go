// Package langmeta provides a shared language metadata registry (English
// names and writing scripts) used by the scanner to recognise text that is
// already written in the target language.
package langmeta

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
)

// Script is a set of Unicode ranges that identify a writing system.
// The zero Script matches nothing.
type Script struct {
	Name   string
	tables []*unicode.RangeTable
}

// Contains reports whether any rune of text belongs to the script.
func (s Script) Contains(text string) bool {
	if len(s.tables) == 0 {
		return false
	}
	for _, r := range text {
		if unicode.IsOneOf(s.tables, r) {
			return true
		}
	}
	return false
}

// IsZero reports whether the script has no ranges (Latin-script targets).
func (s Script) IsZero() bool { return len(s.tables) == 0 }

// cjkUnified is the CJK Unified Ideographs block, U+4E00–U+9FFF.
var cjkUnified = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x4e00, Hi: 0x9fff, Stride: 1}},
}

var (
	Han        = Script{Name: "Han", tables: []*unicode.RangeTable{cjkUnified}}
	Japanese   = Script{Name: "Japanese", tables: []*unicode.RangeTable{cjkUnified, unicode.Hiragana, unicode.Katakana}}
	Hangul     = Script{Name: "Hangul", tables: []*unicode.RangeTable{unicode.Hangul}}
	Cyrillic   = Script{Name: "Cyrillic", tables: []*unicode.RangeTable{unicode.Cyrillic}}
	Greek      = Script{Name: "Greek", tables: []*unicode.RangeTable{unicode.Greek}}
	Arabic     = Script{Name: "Arabic", tables: []*unicode.RangeTable{unicode.Arabic}}
	Hebrew     = Script{Name: "Hebrew", tables: []*unicode.RangeTable{unicode.Hebrew}}
	Thai       = Script{Name: "Thai", tables: []*unicode.RangeTable{unicode.Thai}}
	Devanagari = Script{Name: "Devanagari", tables: []*unicode.RangeTable{unicode.Devanagari}}
)

// Meta describes a language.
type Meta struct {
	Name   string
	Script Script
}

// Registry contains canonical language metadata keyed by base language or
// full locale. Latin-script languages carry a zero Script: text in them
// cannot be told apart from English source text by script alone.
var Registry = map[string]Meta{
	"ar":    {Name: "Arabic", Script: Arabic},
	"bg":    {Name: "Bulgarian", Script: Cyrillic},
	"de":    {Name: "German"},
	"el":    {Name: "Greek", Script: Greek},
	"en":    {Name: "English"},
	"es":    {Name: "Spanish"},
	"fa":    {Name: "Persian", Script: Arabic},
	"fr":    {Name: "French"},
	"he":    {Name: "Hebrew", Script: Hebrew},
	"hi":    {Name: "Hindi", Script: Devanagari},
	"it":    {Name: "Italian"},
	"ja":    {Name: "Japanese", Script: Japanese},
	"kk":    {Name: "Kazakh", Script: Cyrillic},
	"ko":    {Name: "Korean", Script: Hangul},
	"mr":    {Name: "Marathi", Script: Devanagari},
	"ne":    {Name: "Nepali", Script: Devanagari},
	"nl":    {Name: "Dutch"},
	"pl":    {Name: "Polish"},
	"pt":    {Name: "Portuguese"},
	"ru":    {Name: "Russian", Script: Cyrillic},
	"sr":    {Name: "Serbian", Script: Cyrillic},
	"th":    {Name: "Thai", Script: Thai},
	"uk":    {Name: "Ukrainian", Script: Cyrillic},
	"ur":    {Name: "Urdu", Script: Arabic},
	"zh":    {Name: "Chinese", Script: Han},
	"zh-CN": {Name: "Simplified Chinese", Script: Han},
	"zh-TW": {Name: "Traditional Chinese", Script: Han},
}

func canonicalize(lang string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(lang), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	if len(parts) >= 2 {
		parts[1] = strings.ToUpper(parts[1])
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort language metadata for language codes,
// supporting variants like zh_CN, zh-Hans and locale fallbacks.
func Resolve(lang string) Meta {
	if m, ok := Registry[lang]; ok {
		return m
	}
	normalized := canonicalize(lang)
	if m, ok := Registry[normalized]; ok {
		return m
	}
	if tag, err := language.Parse(normalized); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			if m, ok := Registry[base.String()]; ok {
				return m
			}
		}
	}
	return Meta{Name: lang}
}

// ScriptFor returns the writing script of lang, or a zero Script when the
// language is unknown or Latin-script.
func ScriptFor(lang string) Script {
	return Resolve(lang).Script
}
