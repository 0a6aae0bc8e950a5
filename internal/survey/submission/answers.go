package submission

import (
	"strconv"
	"strings"

	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/prefill"
	"survey-forms/internal/survey/query"
	"survey-forms/internal/survey/schema"
)

func questionKey(n int) string {
	return "question" + strconv.Itoa(n)
}

// isDirectKey reports whether key addresses one of the ten question slots.
func isDirectKey(key string) bool {
	n, ok := strings.CutPrefix(key, "question")
	if !ok {
		return false
	}
	i, err := strconv.Atoi(n)
	return err == nil && i >= 1 && i <= QuestionSlots && questionKey(i) == key
}

// Answers fills the ten question slots.
//
// A slot takes the value of the field keyed questionN when it is answered.
// Otherwise it takes the next unused value from the sequential list: every
// other answered, enabled, interactive field that is not a route or outlet
// field, in schema order. The cursor into that list only moves when a slot
// consumes a value, so no value is used twice. Slot 10 finally falls back to
// the outletName query parameter.
func Answers(sc *schema.Schema, values form.Values, p query.Params) [QuestionSlots]string {
	var direct [QuestionSlots]string
	var sequential []string

	for _, f := range sc.Fields {
		if !f.Type.Interactive() {
			continue
		}
		v, ok := values[f.Key]
		if !ok {
			continue
		}
		answer := strings.TrimSpace(v.String())

		if isDirectKey(f.Key) {
			n, _ := strconv.Atoi(strings.TrimPrefix(f.Key, "question"))
			direct[n-1] = answer
			continue
		}
		if answer == "" || f.Disabled || prefill.IsRouteField(f) || prefill.IsOutletField(f) {
			continue
		}
		sequential = append(sequential, answer)
	}

	var slots [QuestionSlots]string
	cursor := 0
	for i := range slots {
		switch {
		case direct[i] != "":
			slots[i] = direct[i]
		case cursor < len(sequential):
			slots[i] = sequential[cursor]
			cursor++
		}
	}

	if slots[QuestionSlots-1] == "" {
		slots[QuestionSlots-1] = p.Get(query.OutletName...)
	}
	return slots
}
