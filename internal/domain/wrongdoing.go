package domain

import "sort"

// OpenPerQuestion keeps the most recently attempted open row of each question,
// orders the result by lastAttempted (ties by id) and applies limit (<= 0 keeps all).
func OpenPerQuestion(rows []WrongdoingQuestion, newestFirst bool, limit int) []WrongdoingQuestion {
	latest := make(map[string]int, len(rows))
	out := make([]WrongdoingQuestion, 0, len(rows))
	for _, w := range rows {
		if w.RetestedCorrectly {
			continue
		}
		i, seen := latest[w.QuestionID]
		if !seen {
			latest[w.QuestionID] = len(out)
			out = append(out, w)
			continue
		}
		cur := out[i]
		if w.LastAttempted.After(cur.LastAttempted) || (w.LastAttempted.Equal(cur.LastAttempted) && w.ID < cur.ID) {
			out[i] = w
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastAttempted.Equal(out[j].LastAttempted) {
			if newestFirst {
				return out[i].LastAttempted.After(out[j].LastAttempted)
			}
			return out[i].LastAttempted.Before(out[j].LastAttempted)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
