// Package lead validates contact details and builds the persistence payload
// that gates the outcome reveal.
package lead

import (
	"context"
	"strings"
	"time"

	"screening-quiz-service/internal/domain"
)

// Source tag stamped on every payload so downstream reporting can tell quiz
// leads apart from other capture forms.
const Source = "screening-quiz"

const minPhoneDigits = 8

// Sink durably stores lead payloads. Implementations must report success and
// failure distinguishably; deduplication is the sink's concern, not ours.
type Sink interface {
	SaveLead(ctx context.Context, payload domain.LeadPayload) error
}

// ValidContact reports whether the pair is submittable: a plausible email or a
// phone number with at least eight digits. Either alone is sufficient.
func ValidContact(email, phone string) bool {
	return validEmail(strings.TrimSpace(email)) || validPhone(phone)
}

// validEmail wants an @ with a later dot that is not the final character.
// Deliberately loose; the sink side owns real verification.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 {
		return false
	}
	dot := strings.LastIndex(email, ".")
	return dot > at && dot < len(email)-1
}

func validPhone(phone string) bool {
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= minPhoneDigits
}

// BuildPayload assembles the immutable submission record. Contact fields are
// trimmed and stored as nil when empty; the answer map is snapshotted so later
// session mutation cannot leak into a stored lead.
func BuildPayload(answers domain.AnswerMap, result domain.Result, email, phone, clientID string, now time.Time) domain.LeadPayload {
	return domain.LeadPayload{
		Email:          optional(strings.TrimSpace(email)),
		Phone:          optional(strings.TrimSpace(phone)),
		Answers:        answers.Clone(),
		ScreeningTotal: result.ScreeningTotal,
		SeverityBand:   result.SeverityBand,
		ItemScores:     result.ItemScores,
		DominantTag:    result.DominantTag,
		OutcomeID:      result.Outcome.ID,
		OutcomeName:    result.Outcome.Name,
		Age:            result.Age,
		Category:       result.Category,
		ReferralRoute:  result.ReferralRoute,
		ClientID:       clientID,
		Source:         Source,
		CreatedAt:      now,
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
