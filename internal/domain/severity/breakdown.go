package severity

// Answer is one row of the per-question review shown to doctors.
type Answer struct {
	QuestionID string `json:"question_id"`
	Question   string `json:"question"`
	Weight     int    `json:"weight,omitempty"`
	Selected   string `json:"selected,omitempty"`
	Band       string `json:"band,omitempty"`
}

// Breakdown lines responses up against the catalog. Questions without a
// matching option are returned with only their id and text.
func Breakdown(responses map[string]int) []Answer {
	out := make([]Answer, 0, len(catalog))
	for _, q := range catalog {
		a := Answer{QuestionID: q.ID, Question: q.Question}
		if opt, ok := q.option(responses[q.ID]); ok {
			a.Weight = opt.Weight
			a.Selected = opt.Label
			a.Band = band(opt.Weight)
		}
		out = append(out, a)
	}
	return out
}

func band(weight int) string {
	switch weight {
	case 1:
		return "Low"
	case 2:
		return "Moderate"
	case 3:
		return "Severe"
	}
	return ""
}

// Assessment bundles everything a detail view renders for a response set.
type Assessment struct {
	Result
	Display   Display  `json:"display"`
	Breakdown []Answer `json:"breakdown"`
}

// Assess classifies responses and attaches the display bundle and the
// per-question breakdown.
func Assess(responses map[string]int) Assessment {
	r := Classify(responses)
	d, _ := DisplayFor(r.Level)
	return Assessment{
		Result:    r,
		Display:   d,
		Breakdown: Breakdown(responses),
	}
}
