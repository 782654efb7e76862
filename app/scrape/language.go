package scrape

import "strings"

// Hand-maintained hostname keyword buckets. This is a deliberately crude
// stand-in for language detection: a real detector can replace
// ClassifyLanguage without touching any caller.
var (
	arabicHostKeywords = []string{
		"aljazeera", "skynewsarabia", "alarabiya", "akhbaar", "arabic.cnn", "bbc.com",
	}
	russianHostKeywords = []string{
		"rbc.ru", "rt.com", "tass.com", "meduza.io", "echo.msk.ru", "sputniknews",
	}
)

// ClassifyLanguage maps a source hostname to a language label. Anything
// unmatched is English.
func ClassifyLanguage(host string) string {
	for _, k := range arabicHostKeywords {
		if strings.Contains(host, k) {
			return "Arabic"
		}
	}
	for _, k := range russianHostKeywords {
		if strings.Contains(host, k) {
			return "Russian"
		}
	}
	return "English"
}
