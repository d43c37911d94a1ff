package domain

import "strings"

// Language identifies one of the supported submission runtimes
type Language string

const (
	LanguageCpp    Language = "cpp"
	LanguageJava   Language = "java"
	LanguagePython Language = "python"
)

var languageAliases = map[string]Language{
	"cpp":     LanguageCpp,
	"c++":     LanguageCpp,
	"java":    LanguageJava,
	"python":  LanguagePython,
	"python3": LanguagePython,
}

// SupportedLanguages lists the languages in display order
func SupportedLanguages() []Language {
	return []Language{LanguageCpp, LanguageJava, LanguagePython}
}

// ParseLanguage resolves a user supplied language id, case-insensitive
func ParseLanguage(s string) (Language, bool) {
	lang, ok := languageAliases[strings.ToLower(strings.TrimSpace(s))]
	return lang, ok
}

func (l Language) String() string {
	return string(l)
}

// IsSupported reports whether l is one of the canonical language ids
func (l Language) IsSupported() bool {
	for _, supported := range SupportedLanguages() {
		if l == supported {
			return true
		}
	}
	return false
}
