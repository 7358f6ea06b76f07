// Package search ranks cached emails against a free-text query. It backs
// the search endpoint in standalone mode, where no server-side fuzzy
// search exists, and the suggestion dropdown in both modes.
package search

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/mpham/mailboard/internal/api"
	"github.com/mpham/mailboard/internal/model"
)

// Field names accepted in a search request.
const (
	FieldSubject   = "subject"
	FieldFromName  = "fromName"
	FieldFromEmail = "fromEmail"
	FieldSnippet   = "snippet"
)

// DefaultFields is the field set used when a request names none.
var DefaultFields = []string{FieldSubject, FieldFromName, FieldFromEmail, FieldSnippet}

// fieldValue extracts one searchable field from an email.
func fieldValue(e model.Email, field string) string {
	switch field {
	case FieldSubject:
		return e.Subject
	case FieldFromName:
		return e.FromName
	case FieldFromEmail:
		return e.FromEmail
	case FieldSnippet:
		return e.Snippet
	default:
		return ""
	}
}

// emailSource adapts one field of an email slice to fuzzy.Source.
type emailSource struct {
	emails []model.Email
	field  string
}

func (s emailSource) String(i int) string {
	return fieldValue(s.emails[i], s.field)
}

func (s emailSource) Len() int {
	return len(s.emails)
}

// Search ranks emails against params.Q across the requested fields and
// returns those whose normalized relevance clears params.Threshold, best
// first. An email matching several fields keeps its best score. An empty
// query returns nil.
func Search(emails []model.Email, params api.FuzzySearchParams) []model.Email {
	query := strings.TrimSpace(params.Q)
	if query == "" {
		return nil
	}

	fields := params.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}

	best := make(map[int]int) // email index -> best raw score
	for _, field := range fields {
		matches := fuzzy.FindFrom(query, emailSource{emails: emails, field: field})
		for _, m := range matches {
			if score, ok := best[m.Index]; !ok || m.Score > score {
				best[m.Index] = m.Score
			}
		}
	}
	if len(best) == 0 {
		return nil
	}

	maxScore := 0
	for _, score := range best {
		if score > maxScore {
			maxScore = score
		}
	}

	var results []model.Email
	for idx, score := range best {
		relevance := 1.0
		if maxScore > 0 {
			relevance = float64(score) / float64(maxScore)
		}
		if relevance < params.Threshold {
			continue
		}
		e := emails[idx]
		e.RelevanceScore = relevance
		results = append(results, e)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].RelevanceScore != results[j].RelevanceScore {
			return results[i].RelevanceScore > results[j].RelevanceScore
		}
		return results[i].ReceivedAt.After(results[j].ReceivedAt)
	})

	return results
}

// Suggest ranks candidate contacts and keywords against a query prefix.
// Candidates come from the local cache (frequent senders, recent
// subjects); at most limit entries per bucket are returned.
func Suggest(query string, contacts, keywords []string, limit int) api.Suggestions {
	if limit <= 0 {
		limit = 5
	}

	return api.Suggestions{
		Contacts: rank(query, contacts, limit),
		Keywords: rank(query, keywords, limit),
	}
}

// rank orders candidates by fuzzy score against the query. An empty
// query passes the first candidates through unranked.
func rank(query string, candidates []string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		if len(candidates) > limit {
			return candidates[:limit]
		}
		return candidates
	}

	matches := fuzzy.Find(query, candidates)
	out := make([]string, 0, limit)
	for _, m := range matches {
		out = append(out, candidates[m.Index])
		if len(out) == limit {
			break
		}
	}
	return out
}
