package domain

// DateLayout formats the day shown next to wrong questions.
const DateLayout = "2006-01-02"

// AppendHistory appends entry and keeps at most limit entries, dropping the
// oldest. A limit <= 0 keeps everything. The input slice is not modified.
func AppendHistory(history []PointsEntry, entry PointsEntry, limit int) []PointsEntry {
	out := make([]PointsEntry, len(history), len(history)+1)
	copy(out, history)
	out = append(out, entry)

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
