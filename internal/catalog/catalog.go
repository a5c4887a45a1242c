// Package catalog holds the static question definitions and assembles the
// fixed per-session question sequence.
package catalog

import (
	"fmt"
	"math/rand"

	"screening-quiz-service/internal/domain"
)

// Screening item IDs. The first two form the anxiety sub-scale, the last two
// the depression sub-scale.
const (
	ItemNervous  = "screen-nervous"
	ItemWorry    = "screen-worry"
	ItemInterest = "screen-interest"
	ItemDown     = "screen-down"
)

// ScreeningItems lists the four screening item IDs in sequence order.
var ScreeningItems = []string{ItemNervous, ItemWorry, ItemInterest, ItemDown}

// Classification item IDs.
const (
	ItemElement   = "astro-element"
	ItemEnergy    = "astro-energy"
	ItemPlace     = "astro-place"
	ItemTime      = "astro-time"
	ItemCompanion = "astro-companion"
)

// Demographic item IDs.
const (
	ItemBirthYear = "about-birth-year"
	ItemRegion    = "about-region"
)

// Archetype tags carried by classification options.
const (
	TagSun    = "sun"
	TagMoon   = "moon"
	TagComet  = "comet"
	TagNebula = "nebula"
)

// Sequence is the fixed question order presented to every session.
var Sequence = []string{
	ItemNervous,
	ItemWorry,
	ItemInterest,
	ItemDown,
	ItemElement,
	ItemEnergy,
	ItemPlace,
	ItemTime,
	ItemCompanion,
	ItemBirthYear,
	ItemRegion,
}

// scoredOptions is the fixed four-point scale attached to every screening item.
func scoredOptions() []domain.Option {
	return []domain.Option{
		{Label: "Not at all", Score: 0},
		{Label: "Several days", Score: 1},
		{Label: "More than half the days", Score: 2},
		{Label: "Nearly every day", Score: 3},
	}
}

// Default returns the built-in catalog. Deployments can override wording by
// seeding a catalog row in Postgres; IDs and types must match this one.
func Default() domain.Catalog {
	return domain.Catalog{
		ID: "default",
		Questions: []domain.Question{
			{ID: ItemNervous, Type: domain.QuestionScored,
				Prompt: "Over the last two weeks, how often have you felt nervous, anxious or on edge?"},
			{ID: ItemWorry, Type: domain.QuestionScored,
				Prompt: "Over the last two weeks, how often have you not been able to stop or control worrying?"},
			{ID: ItemInterest, Type: domain.QuestionScored,
				Prompt: "Over the last two weeks, how often have you had little interest or pleasure in doing things?"},
			{ID: ItemDown, Type: domain.QuestionScored,
				Prompt: "Over the last two weeks, how often have you felt down, depressed or hopeless?"},
			{ID: ItemElement, Type: domain.QuestionClassification,
				Prompt: "Which pull do you feel most strongly?",
				Options: []domain.Option{
					{Label: "Warmth that others gather around", Tag: TagSun},
					{Label: "Quiet light in the dark", Tag: TagMoon},
					{Label: "Momentum, always moving", Tag: TagComet},
					{Label: "Slow clouds of colour and ideas", Tag: TagNebula},
				}},
			{ID: ItemEnergy, Type: domain.QuestionClassification,
				Prompt: "A free afternoon appears out of nowhere. What happens?",
				Options: []domain.Option{
					{Label: "Call everyone, make it an event", Tag: TagSun},
					{Label: "Tea, a blanket, one good friend at most", Tag: TagMoon},
					{Label: "Out the door before a plan exists", Tag: TagComet},
					{Label: "Disappear into a project or daydream", Tag: TagNebula},
				}},
			{ID: ItemPlace, Type: domain.QuestionClassification,
				Prompt: "Where do you feel most yourself?",
				Options: []domain.Option{
					{Label: "Centre of the room", Tag: TagSun},
					{Label: "Somewhere familiar and quiet", Tag: TagMoon},
					{Label: "Anywhere new", Tag: TagComet},
					{Label: "Inside my own head", Tag: TagNebula},
				}},
			{ID: ItemTime, Type: domain.QuestionClassification,
				Prompt: "When does your best energy arrive?",
				Options: []domain.Option{
					{Label: "Midday, full light", Tag: TagSun},
					{Label: "Late at night", Tag: TagMoon},
					{Label: "In bursts, no schedule", Tag: TagComet},
					{Label: "Slow mornings, drifting in", Tag: TagNebula},
				}},
			{ID: ItemCompanion, Type: domain.QuestionClassification,
				Prompt: "Friends would say you are the one who...",
				Options: []domain.Option{
					{Label: "Keeps everyone's spirits up", Tag: TagSun},
					{Label: "Listens until it all makes sense", Tag: TagMoon},
					{Label: "Drags them into adventures", Tag: TagComet},
					{Label: "Sees things nobody else noticed", Tag: TagNebula},
				}},
			{ID: ItemBirthYear, Type: domain.QuestionYear,
				Prompt: "What year were you born?"},
			{ID: ItemRegion, Type: domain.QuestionCategory,
				Prompt: "Where do you live?"},
		},
	}
}

// BuildSequence resolves Sequence against the catalog and returns the ordered
// question list for one session. Screening items get the fixed scored option
// set; each classification item's options are independently shuffled with rnd.
// The catalog entries themselves are never mutated. A sequence ID missing from
// the catalog is a configuration error and fails the build.
//
// Call this once per session and hold the result: rebuilding reshuffles
// classification options, which must not happen mid-session.
func BuildSequence(cat domain.Catalog, rnd *rand.Rand) ([]domain.Question, error) {
	byID := make(map[string]domain.Question, len(cat.Questions))
	for _, q := range cat.Questions {
		byID[q.ID] = q
	}

	out := make([]domain.Question, 0, len(Sequence))
	for _, id := range Sequence {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrQuestionNotFound, id)
		}
		switch q.Type {
		case domain.QuestionScored:
			q.Options = scoredOptions()
		case domain.QuestionClassification:
			opts := make([]domain.Option, len(q.Options))
			copy(opts, q.Options)
			rnd.Shuffle(len(opts), func(i, j int) {
				opts[i], opts[j] = opts[j], opts[i]
			})
			q.Options = opts
		default:
			q.Options = nil
		}
		out = append(out, q)
	}
	return out, nil
}
