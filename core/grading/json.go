package grading

import "encoding/json"

// Grades and percentages are sent with their two stored decimals, eg. "3.30" and "0.00".

func (g IndividualGrade) MarshalJSON() ([]byte, error) {
	type alias IndividualGrade
	return json.Marshal(struct {
		alias
		Value string `json:"value"`
	}{alias(g), g.Value.StringFixed(finalGradePlaces)})
}

func (fg FinalGrade) MarshalJSON() ([]byte, error) {
	type alias FinalGrade
	return json.Marshal(struct {
		alias
		Value string `json:"value"`
	}{alias(fg), fg.Value.StringFixed(finalGradePlaces)})
}

func (row StudentReportRow) MarshalJSON() ([]byte, error) {
	type alias StudentReportRow
	return json.Marshal(struct {
		alias
		FinalGrade string `json:"final_grade"`
	}{alias(row), row.FinalGrade.StringFixed(finalGradePlaces)})
}

func (cut Cut) MarshalJSON() ([]byte, error) {
	type alias Cut
	return json.Marshal(struct {
		alias
		Percentage string `json:"percentage"`
	}{alias(cut), cut.Percentage.StringFixed(finalGradePlaces)})
}
