package pipeline

import "fetalhealth/pkg/data"

// FeatureCount is the number of CTG measurements per exam.
const FeatureCount = 21

// FetalHealthClasses are the label codes of the CTG dataset, in report order.
var FetalHealthClasses = []data.Class{
	{Code: 1, Name: "Normal"},
	{Code: 2, Name: "Suspect"},
	{Code: 3, Name: "Pathological"},
}

// Schema returns the fetal health dataset schema with the given label column.
func Schema(label string) data.Schema {
	return data.Schema{
		Label:    label,
		Features: FeatureCount,
		Classes:  FetalHealthClasses,
	}
}
