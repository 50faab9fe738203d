package langmeta

import "testing"

func TestCanonicalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "zh_cn", want: "zh-CN"},
		{in: " EN-us ", want: "en-US"},
		{in: "ru", want: "ru"},
		{in: "", want: ""},
	}

	for _, tc := range cases {
		got := canonicalize(tc.in)
		if got != tc.want {
			t.Fatalf("canonicalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Run("exact match", func(t *testing.T) {
		got := Resolve("zh-CN")
		if got.Name != "Simplified Chinese" || got.Script.Name != "Han" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("normalized match", func(t *testing.T) {
		got := Resolve("zh_tw")
		if got.Name != "Traditional Chinese" {
			t.Fatalf("unexpected result: %#v", got)
		}
	})

	t.Run("base fallback", func(t *testing.T) {
		got := Resolve("ru-UA")
		if got.Name != "Russian" || got.Script.Name != "Cyrillic" {
			t.Fatalf("unexpected fallback result: %#v", got)
		}
		if got := Resolve("zh-Hans"); got.Script.Name != "Han" {
			t.Fatalf("zh-Hans script = %q, want Han", got.Script.Name)
		}
	})

	t.Run("unknown passthrough", func(t *testing.T) {
		got := Resolve("zz-ZZ")
		if got.Name != "zz-ZZ" || !got.Script.IsZero() {
			t.Fatalf("unexpected unknown result: %#v", got)
		}
	})
}

func TestScriptContains(t *testing.T) {
	han := ScriptFor("zh-CN")
	cases := []struct {
		text string
		want bool
	}{
		{"冠心病", true},
		{"fever 发热", true},
		{"myocardial infarction", false},
		{"", false},
		// Hiragana is outside U+4E00–U+9FFF.
		{"ひらがな", false},
	}
	for _, tc := range cases {
		if got := han.Contains(tc.text); got != tc.want {
			t.Errorf("Han.Contains(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}

	if !ScriptFor("ja").Contains("ひらがな") {
		t.Error("Japanese script should contain hiragana")
	}
	if ScriptFor("de").Contains("Herzinfarkt") {
		t.Error("Latin-script targets must never match")
	}
}
