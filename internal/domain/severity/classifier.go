package severity

import (
	"fmt"
	"math"
)

// Level is the triage bucket of a response set. Values are the colour
// labels stored alongside consultations.
type Level string

const (
	LevelLow    Level = "green"
	LevelMedium Level = "yellow"
	LevelHigh   Level = "red"
)

// Upper bounds (inclusive) of the low and medium buckets, in percent.
const (
	lowThreshold    = 40
	mediumThreshold = 70
)

// ParseLevel accepts either the stored colour label or the priority name.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "green", "low":
		return LevelLow, nil
	case "yellow", "medium":
		return LevelMedium, nil
	case "red", "high":
		return LevelHigh, nil
	}
	return "", fmt.Errorf("invalid severity level: %q", s)
}

// Priority returns the priority name (low, medium, high) of the level.
func (l Level) Priority() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	}
	return ""
}

// Result is the outcome of classifying a response set.
type Result struct {
	Level      Level `json:"level"`
	Score      int   `json:"score"`
	MaxScore   int   `json:"max_score"`
	Percentage int   `json:"percentage"`
}

// Classify sums every weight in responses and buckets the rounded share of
// MaxScore. It does not check question ids or weight ranges; use Validate
// first when the input comes from a client.
func Classify(responses map[string]int) Result {
	if len(responses) == 0 {
		return Result{Level: LevelLow, MaxScore: MaxScore}
	}

	total := 0
	for _, w := range responses {
		total += w
	}

	pct := roundHalfUp(float64(total) / float64(MaxScore) * 100)
	return Result{
		Level:      levelFor(pct),
		Score:      total,
		MaxScore:   MaxScore,
		Percentage: pct,
	}
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

func levelFor(percentage int) Level {
	switch {
	case percentage <= lowThreshold:
		return LevelLow
	case percentage <= mediumThreshold:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Display is the presentation bundle of a level.
type Display struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	BgColor     string `json:"bg_color"`
	TextColor   string `json:"text_color"`
	Description string `json:"description"`
}

var displays = map[Level]Display{
	LevelLow: {
		Label:       "Low Priority",
		Color:       "bg-green-500",
		BgColor:     "bg-green-50",
		TextColor:   "text-green-700",
		Description: "Routine consultation - No immediate concerns",
	},
	LevelMedium: {
		Label:       "Medium Priority",
		Color:       "bg-yellow-500",
		BgColor:     "bg-yellow-50",
		TextColor:   "text-yellow-700",
		Description: "Moderate concern - Should be reviewed soon",
	},
	LevelHigh: {
		Label:       "High Priority",
		Color:       "bg-red-500",
		BgColor:     "bg-red-50",
		TextColor:   "text-red-700",
		Description: "Urgent - Requires immediate attention",
	},
}

// DisplayFor returns the display bundle of level. Unknown levels get the
// zero Display and false.
func DisplayFor(level Level) (Display, bool) {
	d, ok := displays[level]
	return d, ok
}
