package sandbox

import "gitlab.com/codearena.net/internal/domain"

// stdinAdapter turns one test case input into the stdin payload of a language
type stdinAdapter func(input []interface{}) string

// All languages read plain stdin today, so they share the default join rule.
var stdinAdapters = map[domain.Language]stdinAdapter{
	domain.LanguageCpp:    domain.FormatStdin,
	domain.LanguageJava:   domain.FormatStdin,
	domain.LanguagePython: domain.FormatStdin,
}

func adapterFor(language domain.Language) stdinAdapter {
	if adapter, ok := stdinAdapters[language]; ok {
		return adapter
	}
	return domain.FormatStdin
}
