package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// DefaultLanguage is served whenever detection yields nothing usable.
const DefaultLanguage = "en"

var languageNames = map[string]string{
	"en": "English",
	"ko": "Korean",
	"ja": "Japanese",
	"es": "Spanish",
	"zh": "Chinese",
	"pt": "Portuguese",
	"de": "German",
	"fr": "French",
	"it": "Italian",
}

var tldLanguages = map[string]string{
	"kr": "ko",
	"jp": "ja",

	"mx": "es", "es": "es", "ar": "es", "co": "es", "cl": "es", "pe": "es", "ve": "es",
	"ec": "es", "gt": "es", "cu": "es", "do": "es", "py": "es", "uy": "es", "bo": "es",
	"hn": "es", "sv": "es", "ni": "es", "cr": "es", "pa": "es",

	"cn": "zh", "tw": "zh", "hk": "zh",
	"br": "pt", "pt": "pt",
	"de": "de", "at": "de", "ch": "de",
	"fr": "fr", "be": "fr",
	"it": "it",

	"com": "en", "net": "en", "org": "en", "us": "en", "uk": "en", "au": "en", "ca": "en",
	"nz": "en", "ie": "en", "sg": "en", "io": "en", "ai": "en", "app": "en", "dev": "en",
	"tech": "en", "me": "en", "gg": "en", "tv": "en", "so": "en", "fm": "en", "to": "en",
	"cc": "en", "biz": "en", "info": "en",
}

// Languages with localized landing pages; everything else renders in English.
var pageLanguages = map[string]struct{}{
	"en": {},
	"ko": {},
	"ja": {},
	"zh": {},
	"es": {},
}

// LanguageName returns the English display name for an ISO code, used in model prompts.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return languageNames[DefaultLanguage]
}

// DetectLanguageFromDomain infers a language from the TLD of an e-mail address or domain.
func DetectLanguageFromDomain(emailOrDomain string) string {
	value := strings.ToLower(strings.TrimSpace(emailOrDomain))
	if value == "" {
		return DefaultLanguage
	}
	if at := strings.LastIndex(value, "@"); at >= 0 {
		value = value[at+1:]
	}
	value = strings.TrimSuffix(value, ".")
	tld := value
	if dot := strings.LastIndex(value, "."); dot >= 0 {
		tld = value[dot+1:]
	}
	if lang, ok := tldLanguages[tld]; ok {
		return lang
	}
	return DefaultLanguage
}

// LanguageCode resolves an ISO code, BCP 47 tag, or English language name to a base ISO 639-1 code.
func LanguageCode(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultLanguage
	}
	for code, name := range languageNames {
		if strings.EqualFold(name, trimmed) {
			return code
		}
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return DefaultLanguage
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return DefaultLanguage
	}
	return base.String()
}

// PageLanguage maps a lead's language to one the landing page is localized in.
func PageLanguage(raw string) string {
	code := LanguageCode(raw)
	if _, ok := pageLanguages[code]; ok {
		return code
	}
	return DefaultLanguage
}
