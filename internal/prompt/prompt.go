package prompt

import (
	"fmt"
	"strings"
)

// Duration is the overall length of a study plan.
type Duration string

// Pace is the learning pace the plan should assume.
type Pace string

// Style is the preferred kind of study material.
type Style string

const (
	DurationWeek        Duration = "1 Week"
	DurationMonth       Duration = "1 Month"
	DurationThreeMonths Duration = "3 Months"

	PaceSlow   Pace = "Slow"
	PaceMedium Pace = "Medium"
	PaceFast   Pace = "Fast"

	StyleText     Style = "Text-based"
	StyleVideo    Style = "Video-based"
	StylePractice Style = "Practice-heavy"
)

const planTemplate = "Create a %s study plan with a %s learning pace focusing on %s learning. Topic: %s"

// Durations lists the selectable durations in display order.
func Durations() []Duration {
	return []Duration{DurationWeek, DurationMonth, DurationThreeMonths}
}

// Paces lists the selectable paces in display order.
func Paces() []Pace {
	return []Pace{PaceSlow, PaceMedium, PaceFast}
}

// Styles lists the selectable study styles in display order.
func Styles() []Style {
	return []Style{StyleText, StyleVideo, StylePractice}
}

// ParseDuration maps a form value to a Duration.
func ParseDuration(raw string) (Duration, error) {
	for _, d := range Durations() {
		if string(d) == strings.TrimSpace(raw) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown duration %q", raw)
}

// ParsePace maps a form value to a Pace.
func ParsePace(raw string) (Pace, error) {
	for _, p := range Paces() {
		if string(p) == strings.TrimSpace(raw) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown pace %q", raw)
}

// ParseStyle maps a form value to a Style.
func ParseStyle(raw string) (Style, error) {
	for _, s := range Styles() {
		if string(s) == strings.TrimSpace(raw) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown style %q", raw)
}

// Compose renders the study plan instruction. The topic is embedded as-is;
// callers reject blank topics before composing.
func Compose(topic string, d Duration, p Pace, s Style) string {
	return fmt.Sprintf(planTemplate, d, p, s, topic)
}
