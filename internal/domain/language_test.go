package domain

import "testing"

func TestDetectLanguageFromDomain(t *testing.T) {
	cases := map[string]string{
		"ceo@acme.co.kr":      "ko",
		"hello@shop.jp":       "ja",
		"sales@belleza.mx":    "es",
		"acme.com.br":         "pt",
		"info@salon.de":       "de",
		"team@startup.io":     "en",
		"someone@example.xyz": "en",
		"":                    "en",
	}
	for input, want := range cases {
		if got := DetectLanguageFromDomain(input); got != want {
			t.Fatalf("DetectLanguageFromDomain(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLanguageCodeAcceptsNamesAndTags(t *testing.T) {
	cases := map[string]string{
		"Korean":   "ko",
		"japanese": "ja",
		"es":       "es",
		"pt-BR":    "pt",
		"zh-Hant":  "zh",
		"":         "en",
		"???":      "en",
	}
	for input, want := range cases {
		if got := LanguageCode(input); got != want {
			t.Fatalf("LanguageCode(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestPageLanguageFallsBackForUnlocalizedLanguages(t *testing.T) {
	cases := map[string]string{
		"Korean":     "ko",
		"zh":         "zh",
		"Portuguese": "en",
		"de":         "en",
		"fr":         "en",
		"Italian":    "en",
	}
	for input, want := range cases {
		if got := PageLanguage(input); got != want {
			t.Fatalf("PageLanguage(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLanguageNameDefaultsToEnglish(t *testing.T) {
	if got := LanguageName("ko"); got != "Korean" {
		t.Fatalf("expected Korean, got %s", got)
	}
	if got := LanguageName("xx"); got != "English" {
		t.Fatalf("expected English, got %s", got)
	}
}
