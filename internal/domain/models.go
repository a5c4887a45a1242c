package domain

import "time"

// QuestionType tags a catalog entry with the shape of answer it accepts.
type QuestionType string

const (
	// QuestionScored is a four-point screening item (0..3, ascending severity).
	QuestionScored QuestionType = "scored"
	// QuestionClassification is a themed multiple choice whose options carry archetype tags.
	QuestionClassification QuestionType = "classification"
	// QuestionYear is a free-form birth year input.
	QuestionYear QuestionType = "year"
	// QuestionCategory is a select over the fixed region codes.
	QuestionCategory QuestionType = "category"
)

// Option represents one selectable choice of a question. Exactly one of
// Score/Tag/Value is meaningful, depending on the question type.
type Option struct {
	Label string `json:"label"`
	Score int    `json:"score,omitempty"`
	Tag   string `json:"tag,omitempty"`
	Value string `json:"value,omitempty"`
}

// Question is an immutable catalog entry. The rendered sequence references
// entries by ID, never by copy-and-mutate.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Prompt  string       `json:"prompt"`
	Options []Option     `json:"options,omitempty"`
}

// Catalog is the full set of question definitions for one deployment.
type Catalog struct {
	ID        string     `json:"id"`
	Questions []Question `json:"questions"`
}

// AnswerKind discriminates the tagged answer variants.
type AnswerKind string

const (
	AnswerScore    AnswerKind = "score"
	AnswerTag      AnswerKind = "tag"
	AnswerYear     AnswerKind = "year"
	AnswerCategory AnswerKind = "category"
)

// Answer is a tagged variant: only the field matching Kind is meaningful.
// Year keeps the raw user input; validation happens at read time so malformed
// input reads as "not answered" rather than crashing scoring.
type Answer struct {
	Kind     AnswerKind `json:"kind"`
	Score    int        `json:"score,omitempty"`
	Tag      string     `json:"tag,omitempty"`
	Year     string     `json:"year,omitempty"`
	Category string     `json:"category,omitempty"`
}

// ScoreAnswer builds a screening item answer.
func ScoreAnswer(score int) Answer { return Answer{Kind: AnswerScore, Score: score} }

// TagAnswer builds a classification item answer.
func TagAnswer(tag string) Answer { return Answer{Kind: AnswerTag, Tag: tag} }

// YearAnswer builds a birth year answer from raw input.
func YearAnswer(raw string) Answer { return Answer{Kind: AnswerYear, Year: raw} }

// CategoryAnswer builds a region select answer.
func CategoryAnswer(code string) Answer { return Answer{Kind: AnswerCategory, Category: code} }

// AnswerMap maps question IDs to committed answers. Keys are inserted or
// overwritten on every commit and removed only on full reset.
type AnswerMap map[string]Answer

// Clone returns an independent copy so payload snapshots cannot alias live session state.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Region codes accepted by the category select question.
const (
	RegionAustralia = "au"
	RegionNZ        = "nz"
	RegionUK        = "uk"
	RegionUS        = "us"
	RegionOther     = "other"
)

// Regions lists the accepted category codes in display order.
var Regions = []string{RegionAustralia, RegionNZ, RegionUK, RegionUS, RegionOther}

// ValidRegion reports whether code is one of the fixed region codes.
func ValidRegion(code string) bool {
	for _, r := range Regions {
		if r == code {
			return true
		}
	}
	return false
}

// Referral routes. Youth and adult services exist only for the designated
// local region; every other combination falls back to online resources.
const (
	RouteLocalYouth = "local-youth"
	RouteLocalAdult = "local-adult"
	RouteOnline     = "online-global"
)

// Outcome is the final assignment revealed to the user.
type Outcome struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Result is derived from a complete answer map and is a pure function of it:
// recomputing from the same answers always yields the same result.
type Result struct {
	ScreeningTotal  int            `json:"screeningTotal"`
	SeverityBand    string         `json:"severityBand"`
	ItemScores      map[string]int `json:"itemScores"`
	AnxietyScore    int            `json:"anxietyScore"`
	DepressionScore int            `json:"depressionScore"`
	AnxietyFlag     bool           `json:"anxietyFlag"`
	DepressionFlag  bool           `json:"depressionFlag"`
	DominantTag     string         `json:"dominantTag"`
	Outcome         Outcome        `json:"outcome"`
	Age             *int           `json:"age"`
	Category        string         `json:"category"`
	ReferralRoute   string         `json:"referralRoute"`
}

// LeadPayload is the persistence record built at submission time. It is
// immutable once built; durability is the sink's responsibility.
type LeadPayload struct {
	Email          *string        `json:"email"`
	Phone          *string        `json:"phone"`
	Answers        AnswerMap      `json:"answers"`
	ScreeningTotal int            `json:"screeningTotal"`
	SeverityBand   string         `json:"severityBand"`
	ItemScores     map[string]int `json:"itemScores"`
	DominantTag    string         `json:"dominantTag"`
	OutcomeID      string         `json:"outcomeId"`
	OutcomeName    string         `json:"outcomeName"`
	Age            *int           `json:"age"`
	Category       string         `json:"category"`
	ReferralRoute  string         `json:"referralRoute"`
	ClientID       string         `json:"clientId"`
	Source         string         `json:"source"`
	CreatedAt      time.Time      `json:"createdAt"`
}
