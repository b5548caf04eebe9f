package plan

import "strings"

// Keyword sets shared by the trigger detector and the Q&A extractors.
var (
	SecurityKeywords = []string{
		"authentication", "authorization", "auth", "security", "password",
		"token", "jwt", "oauth", "encryption", "crypto",
	}

	SchemaKeywords = []string{
		"migration", "schema", "alter table", "create table", "drop table",
		"database", "db migration",
	}

	BreakingChangeKeywords = []string{
		"breaking change", "breaking api", "remove endpoint", "delete endpoint",
		"rename endpoint", "change contract", "modify response",
		"modify request", "api version",
	}
)

// ContainsAny reports whether text contains any of the keywords.
// text is expected to be lowercased already.
func ContainsAny(text string, keywords []string) bool {
	return len(MatchKeywords(text, keywords)) > 0
}

// MatchKeywords returns the keywords that occur in text, in keyword order.
func MatchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
