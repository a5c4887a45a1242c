// Package scoring reduces a completed answer map into the screening result,
// archetype classification, referral route and final outcome. Every function
// is pure and tolerates missing keys: the state machine only calls Process
// after completion, but the answer map is open.
package scoring

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"screening-quiz-service/internal/catalog"
	"screening-quiz-service/internal/domain"
)

// Severity bands for the screening total. Four bands over the 0..12 range:
// 0-2, 3-5, 6-8, 9-12.
const (
	BandMinimal  = "minimal"
	BandMild     = "mild"
	BandModerate = "moderate"
	BandSevere   = "severe"
)

// Bands lists the severity bands in ascending order.
var Bands = []string{BandMinimal, BandMild, BandModerate, BandSevere}

// TagPriority fixes the tally order for DominantTag. Ties are broken by this
// order, not by answer order, so it is outcome-determining and must not change.
var TagPriority = []string{catalog.TagSun, catalog.TagMoon, catalog.TagComet, catalog.TagNebula}

// Sub-scale risk threshold: a sub-scale score of 3 or more raises its flag.
const subScaleRiskCutoff = 3

// Referral age window for the local youth service, bounds inclusive.
const (
	youthMinAge = 12
	youthMaxAge = 25
)

// localRegion is the category value with in-person referral services.
const localRegion = domain.RegionAustralia

// itemScore reads one screening item, clamped to the 0..3 scale.
// Missing or mismatched answers score 0.
func itemScore(answers domain.AnswerMap, id string) int {
	ans, ok := answers[id]
	if !ok || ans.Kind != domain.AnswerScore {
		return 0
	}
	if ans.Score < 0 {
		return 0
	}
	if ans.Score > 3 {
		return 3
	}
	return ans.Score
}

// ItemScores returns the per-item screening scores keyed by item ID.
func ItemScores(answers domain.AnswerMap) map[string]int {
	out := make(map[string]int, len(catalog.ScreeningItems))
	for _, id := range catalog.ScreeningItems {
		out[id] = itemScore(answers, id)
	}
	return out
}

// ScreeningTotal sums the four screening item scores; range 0..12.
func ScreeningTotal(answers domain.AnswerMap) int {
	total := 0
	for _, id := range catalog.ScreeningItems {
		total += itemScore(answers, id)
	}
	return total
}

// SeverityBand buckets a screening total into one of the four bands.
func SeverityBand(total int) string {
	switch {
	case total <= 2:
		return BandMinimal
	case total <= 5:
		return BandMild
	case total <= 8:
		return BandModerate
	default:
		return BandSevere
	}
}

// SubScales returns the anxiety and depression sub-scale scores with their
// risk flags. The first two screening items form the anxiety scale, the last
// two the depression scale.
func SubScales(answers domain.AnswerMap) (anxiety, depression int, anxietyFlag, depressionFlag bool) {
	anxiety = itemScore(answers, catalog.ItemNervous) + itemScore(answers, catalog.ItemWorry)
	depression = itemScore(answers, catalog.ItemInterest) + itemScore(answers, catalog.ItemDown)
	return anxiety, depression, anxiety >= subScaleRiskCutoff, depression >= subScaleRiskCutoff
}

// DominantTag tallies archetype tags across all classification answers and
// returns the most frequent one. Ties resolve to the tag declared earlier in
// TagPriority. With no classification answers at all, the first priority tag
// wins by the same rule.
func DominantTag(answers domain.AnswerMap) string {
	counts := make(map[string]int, len(TagPriority))
	for _, ans := range answers {
		if ans.Kind == domain.AnswerTag {
			counts[ans.Tag]++
		}
	}

	best := TagPriority[0]
	bestCount := counts[best]
	for _, tag := range TagPriority[1:] {
		if counts[tag] > bestCount {
			best = tag
			bestCount = counts[tag]
		}
	}
	return best
}

// DerivedAge parses the birth year answer and returns the age at now, or nil
// when the answer is missing, non-numeric or outside 1900..current year.
func DerivedAge(answers domain.AnswerMap, now time.Time) *int {
	ans, ok := answers[catalog.ItemBirthYear]
	if !ok || ans.Kind != domain.AnswerYear {
		return nil
	}
	year, err := strconv.Atoi(strings.TrimSpace(ans.Year))
	if err != nil {
		return nil
	}
	current := now.Year()
	if year < 1900 || year > current {
		return nil
	}
	age := current - year
	return &age
}

// Category returns the raw region answer, or the empty string if absent.
func Category(answers domain.AnswerMap) string {
	ans, ok := answers[catalog.ItemRegion]
	if !ok || ans.Kind != domain.AnswerCategory {
		return ""
	}
	return ans.Category
}

// ReferralRoute picks the downstream referral destination. The local region
// with age 12..25 inclusive routes to the youth service, local with age over
// 25 to the adult service, and everything else (unknown age included) to the
// online fallback.
func ReferralRoute(age *int, category string) string {
	if category != localRegion || age == nil {
		return domain.RouteOnline
	}
	switch {
	case *age >= youthMinAge && *age <= youthMaxAge:
		return domain.RouteLocalYouth
	case *age > youthMaxAge:
		return domain.RouteLocalAdult
	default:
		return domain.RouteOnline
	}
}

// assignments maps (tag, band) to the revealed outcome. Every tag in
// TagPriority crossed with every band in Bands must be present; Validate
// enforces that at startup.
var assignments = map[string]map[string]domain.Outcome{
	catalog.TagSun: {
		BandMinimal:  {ID: "sun-bright", Name: "The Bright Sun"},
		BandMild:     {ID: "sun-hazed", Name: "Sun Behind Haze"},
		BandModerate: {ID: "sun-eclipsed", Name: "The Eclipsed Sun"},
		BandSevere:   {ID: "sun-storm", Name: "Sun in Storm"},
	},
	catalog.TagMoon: {
		BandMinimal:  {ID: "moon-full", Name: "The Full Moon"},
		BandMild:     {ID: "moon-waning", Name: "The Waning Moon"},
		BandModerate: {ID: "moon-shadowed", Name: "Moon in Shadow"},
		BandSevere:   {ID: "moon-dark", Name: "The Dark Moon"},
	},
	catalog.TagComet: {
		BandMinimal:  {ID: "comet-soaring", Name: "The Soaring Comet"},
		BandMild:     {ID: "comet-drifting", Name: "The Drifting Comet"},
		BandModerate: {ID: "comet-caught", Name: "Comet Caught in Orbit"},
		BandSevere:   {ID: "comet-falling", Name: "The Falling Comet"},
	},
	catalog.TagNebula: {
		BandMinimal:  {ID: "nebula-glowing", Name: "The Glowing Nebula"},
		BandMild:     {ID: "nebula-misted", Name: "The Misted Nebula"},
		BandModerate: {ID: "nebula-dimming", Name: "The Dimming Nebula"},
		BandSevere:   {ID: "nebula-collapsed", Name: "The Collapsing Nebula"},
	},
}

// OutcomeAssignment looks up the outcome for a (tag, band) pair. A missing
// entry indicates a broken assignment table, not bad user input.
func OutcomeAssignment(tag, band string) (domain.Outcome, error) {
	byBand, ok := assignments[tag]
	if !ok {
		return domain.Outcome{}, fmt.Errorf("%w: tag=%q band=%q", domain.ErrOutcomeNotMapped, tag, band)
	}
	outcome, ok := byBand[band]
	if !ok {
		return domain.Outcome{}, fmt.Errorf("%w: tag=%q band=%q", domain.ErrOutcomeNotMapped, tag, band)
	}
	return outcome, nil
}

// Validate checks the assignment table covers every (tag, band) combination.
// Run at startup so a broken table fails the build, not a user's reveal.
func Validate() error {
	for _, tag := range TagPriority {
		for _, band := range Bands {
			if _, err := OutcomeAssignment(tag, band); err != nil {
				return err
			}
		}
	}
	return nil
}

// Process composes the full result from scratch. now supplies the clock for
// age derivation; no other input varies, so identical answers always produce
// an identical result.
func Process(answers domain.AnswerMap, now time.Time) (domain.Result, error) {
	total := ScreeningTotal(answers)
	band := SeverityBand(total)
	anxiety, depression, anxietyFlag, depressionFlag := SubScales(answers)
	tag := DominantTag(answers)
	age := DerivedAge(answers, now)
	category := Category(answers)

	outcome, err := OutcomeAssignment(tag, band)
	if err != nil {
		return domain.Result{}, err
	}

	return domain.Result{
		ScreeningTotal:  total,
		SeverityBand:    band,
		ItemScores:      ItemScores(answers),
		AnxietyScore:    anxiety,
		DepressionScore: depression,
		AnxietyFlag:     anxietyFlag,
		DepressionFlag:  depressionFlag,
		DominantTag:     tag,
		Outcome:         outcome,
		Age:             age,
		Category:        category,
		ReferralRoute:   ReferralRoute(age, category),
	}, nil
}
