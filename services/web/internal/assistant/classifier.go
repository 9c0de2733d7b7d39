// Package assistant routes messages of the legal assistant to the right
// backend conversation and answers locally when the backend fails.
package assistant

import "strings"

var lawyerSearchPhrases = []string{
	"find lawyer", "search lawyer", "need lawyer", "looking for lawyer",
	"find attorney", "need attorney", "recommend lawyer", "suggest lawyer",
	"lawyer for", "attorney for", "legal help with", "need legal help",
}

var legalIssues = []string{
	"property dispute", "divorce", "custody", "criminal", "contract",
	"business", "tax", "immigration", "employment", "family law",
	"civil case", "lawsuit", "bail", "inheritance", "real estate",
}

var helpPhrases = []string{
	"need help", "looking for", "find", "recommend", "suggest", "who can help",
}

// IsLawyerSearchQuery reports whether text asks for a lawyer: either an
// explicit lawyer-seeking phrase, or a legal issue together with a request for help.
func IsLawyerSearchQuery(text string) bool {
	lower := strings.ToLower(text)
	if containsAny(lower, lawyerSearchPhrases) {
		return true
	}
	return containsAny(lower, legalIssues) && containsAny(lower, helpPhrases)
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
