package qibla

import (
	"math"

	"github.com/Nixie-Tech-LLC/sajda/internal/model"
)

type comparison int

const (
	otherwise comparison = iota
	atMost
	above
)

type transition struct {
	when      comparison
	threshold float64
	next      model.FeedbackLevel
}

func (t transition) matches(abs float64) bool {
	switch t.when {
	case atMost:
		return abs <= t.threshold
	case above:
		return abs > t.threshold
	}
	return true
}

// transitions is evaluated top to bottom per level; the first match wins.
// Entry and exit thresholds differ so a reading sitting on a boundary does
// not flip the level back and forth.
var transitions = map[model.FeedbackLevel][]transition{
	model.Aligned: {
		{when: above, threshold: 4, next: model.Near},
		{when: otherwise, next: model.Aligned},
	},
	model.Near: {
		{when: atMost, threshold: 3, next: model.Aligned},
		{when: above, threshold: 6, next: model.Far},
		{when: otherwise, next: model.Near},
	},
	model.Far: {
		{when: atMost, threshold: 5, next: model.Near},
		{when: otherwise, next: model.Far},
	},
}

// NextLevel applies the transition table to an absolute angle difference.
func NextLevel(current model.FeedbackLevel, abs float64) model.FeedbackLevel {
	rules, ok := transitions[current]
	if !ok {
		rules = transitions[model.Far]
	}
	for _, rule := range rules {
		if rule.matches(abs) {
			return rule.next
		}
	}
	return current
}

// AngleDiff returns the signed turn from heading to bearing in (-180, 180].
// Exactly opposite headings report +180.
func AngleDiff(bearing, heading float64) float64 {
	d := math.Mod(bearing-heading+540, 360)
	if d < 0 {
		d += 360
	}
	d -= 180
	if d == -180 {
		d = 180
	}
	return d
}

// Guidance reduces heading ticks into a feedback level. The zero value is
// not ready for use; call NewGuidance.
type Guidance struct {
	level model.FeedbackLevel
}

func NewGuidance() *Guidance {
	return &Guidance{level: model.Far}
}

// Level is the current feedback level.
func (g *Guidance) Level() model.FeedbackLevel {
	return g.level
}

// Update folds one (heading, bearing) pair into the level. A missing heading
// or bearing means no signal: the output is Far with no angle.
func (g *Guidance) Update(heading, bearing *float64) model.Feedback {
	if heading == nil || bearing == nil {
		g.level = model.Far
		return model.Feedback{AngleDiff: 0, FeedbackLevel: model.Far}
	}

	diff := AngleDiff(*bearing, *heading)
	g.level = NextLevel(g.level, math.Abs(diff))

	return model.Feedback{AngleDiff: diff, FeedbackLevel: g.level}
}
