// Package severity holds the fixed triage questionnaire and the scoring rules
// that turn a patient's answers into a priority level.
package severity

const (
	// MaxWeight is the weight of the most severe option of every question.
	MaxWeight = 3
	// QuestionCount is the number of questions in the catalog.
	QuestionCount = 9
	// MaxScore is the highest total a complete response set can reach.
	MaxScore = QuestionCount * MaxWeight
)

// Option is one selectable answer of a Question.
type Option struct {
	Label  string `json:"label"`
	Weight int    `json:"weight"`
}

// Question is one item of the triage questionnaire. Options are ordered
// from mildest (weight 1) to most severe (weight 3).
type Question struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []Option `json:"options"`
}

var catalog = []Question{
	{
		ID:       "pain",
		Question: "In the last 7 days, what was the SEVERITY of your PAIN?",
		Options: []Option{
			{Label: "Mild pain, no functional impact", Weight: 1},
			{Label: "Moderate pain, new or worsening, affects activities", Weight: 2},
			{Label: "Severe pain; unable to function; uncontrolled", Weight: 3},
		},
	},
	{
		ID:       "nausea_vomiting",
		Question: "In the last 7 days, what was the SEVERITY of your NAUSEA / VOMITING?",
		Options: []Option{
			{Label: "Mild nausea, eating normally", Weight: 1},
			{Label: "Able to eat/drink but with difficulty", Weight: 2},
			{Label: "Unable to keep food/liquids; signs of dehydration", Weight: 3},
		},
	},
	{
		ID:       "fever_temperature",
		Question: "In the last 7 days, what was the SEVERITY of your FEVER / TEMPERATURE?",
		Options: []Option{
			{Label: "<37.8°C, feels well", Weight: 1},
			{Label: "37.8–38.3°C, feels unwell", Weight: 2},
			{Label: "≥38.3°C (possible neutropenic fever)*", Weight: 3},
		},
	},
	{
		ID:       "fatigue",
		Question: "In the last 7 days, what was the SEVERITY of your FATIGUE?",
		Options: []Option{
			{Label: "Mild, usual for patient", Weight: 1},
			{Label: "Worsening fatigue; new functional impact", Weight: 2},
			{Label: "Extreme fatigue; difficulty walking or standing", Weight: 3},
		},
	},
	{
		ID:       "wound_incision",
		Question: "In the last 7 days, what was the SEVERITY of your WOUND / INCISION?",
		Options: []Option{
			{Label: "Slight redness, no discharge", Weight: 1},
			{Label: "Increasing redness, small discharge", Weight: 2},
			{Label: "Pus, foul smell, fever, rapidly spreading redness", Weight: 3},
		},
	},
	{
		ID:       "breathing_cough",
		Question: "In the last 7 days, what was the SEVERITY of your BREATHING / COUGH?",
		Options: []Option{
			{Label: "Occasional cough, no limitation", Weight: 1},
			{Label: "Persistent cough, mild shortness of breath", Weight: 2},
			{Label: "Difficulty breathing, chest pain", Weight: 3},
		},
	},
	{
		ID:       "bleeding",
		Question: "In the last 7 days, what was the SEVERITY of your BLEEDING?",
		Options: []Option{
			{Label: "Small spotting, self-resolves", Weight: 1},
			{Label: "Recurrent spotting, new bruising", Weight: 2},
			{Label: "Heavy bleeding, blood in stool/vomit/urine", Weight: 3},
		},
	},
	{
		ID:       "gi_symptoms",
		Question: "In the last 7 days, what was the SEVERITY of your GI SYMPTOMS?",
		Options: []Option{
			{Label: "Mild diarrhea (<3 stools/day)", Weight: 1},
			{Label: "Moderate diarrhea, mild abdominal pain", Weight: 2},
			{Label: "Severe diarrhea (>6/day), severe abdominal pain", Weight: 3},
		},
	},
	{
		ID:       "weight_appetite",
		Question: "In the last 7 days, what was the SEVERITY of your WEIGHT / APPETITE?",
		Options: []Option{
			{Label: "Mild appetite loss", Weight: 1},
			{Label: "Eating <50% of usual intake", Weight: 2},
			{Label: "Not eating at all for 24h or >5% weight loss/week", Weight: 3},
		},
	},
}

// Questions returns a copy of the questionnaire in display order.
func Questions() []Question {
	out := make([]Question, len(catalog))
	for i, q := range catalog {
		out[i] = q
		out[i].Options = append([]Option(nil), q.Options...)
	}
	return out
}

// Lookup returns the question with the given id.
func Lookup(id string) (Question, bool) {
	for _, q := range catalog {
		if q.ID == id {
			q.Options = append([]Option(nil), q.Options...)
			return q, true
		}
	}
	return Question{}, false
}

// option returns the option of q carrying weight, if any.
func (q Question) option(weight int) (Option, bool) {
	for _, o := range q.Options {
		if o.Weight == weight {
			return o, true
		}
	}
	return Option{}, false
}
