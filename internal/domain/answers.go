package domain

// AnswerPlan is the outcome of reconciling stored answer rows with a newly
// supplied answer set. Revive carries existing rows with their value
// overwritten and state forced back to active, whether they were active or
// tombstoned before. Create carries answers with no row yet.
type AnswerPlan struct {
	Create []FieldAnswer
	Revive []FormFieldResponse
}

// PlanAnswers reconciles the stored rows of a form response with an incoming
// answer set. A row is never duplicated: the (response, field) pair keeps its
// single row for life, so answering a field that already has a row, even a
// tombstoned one, revives that row. Rows for fields absent from the incoming
// set are left untouched.
func PlanAnswers(existing []FormFieldResponse, incoming []FieldAnswer) AnswerPlan {
	byField := make(map[uint]FormFieldResponse, len(existing))
	for _, row := range existing {
		byField[row.FieldID] = row
	}

	var plan AnswerPlan
	for _, answer := range incoming {
		row, ok := byField[answer.FieldID]
		if !ok {
			plan.Create = append(plan.Create, answer)
			continue
		}

		row.Value = answer.Value
		row.State = AnswerActive
		plan.Revive = append(plan.Revive, row)
	}

	return plan
}

// TombstoneAnswers returns the active rows flipped to tombstoned. Rows already
// tombstoned are skipped so a cancel never rewrites them.
func TombstoneAnswers(rows []FormFieldResponse) []FormFieldResponse {
	var tombstoned []FormFieldResponse
	for _, row := range rows {
		if !row.Active() {
			continue
		}

		row.State = AnswerTombstoned
		tombstoned = append(tombstoned, row)
	}

	return tombstoned
}
