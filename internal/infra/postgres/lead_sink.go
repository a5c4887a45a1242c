package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"screening-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// LeadSink stores lead payloads in the leads table. Uniqueness handling is
// deliberately absent here; the engine's in-flight guard prevents duplicate
// submissions from a single session.
type LeadSink struct {
	pool *pgxpool.Pool
}

func NewLeadSink(pool *pgxpool.Pool) *LeadSink {
	return &LeadSink{pool: pool}
}

func (s *LeadSink) SaveLead(ctx context.Context, payload domain.LeadPayload) error {
	answers, err := json.Marshal(payload.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	itemScores, err := json.Marshal(payload.ItemScores)
	if err != nil {
		return fmt.Errorf("marshal item scores: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO leads (
			email, phone, answers, screening_total, severity_band, item_scores,
			dominant_tag, outcome_id, outcome_name, age, category,
			referral_route, client_id, source, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		payload.Email, payload.Phone, answers, payload.ScreeningTotal,
		payload.SeverityBand, itemScores, payload.DominantTag,
		payload.OutcomeID, payload.OutcomeName, payload.Age, payload.Category,
		payload.ReferralRoute, payload.ClientID, payload.Source, payload.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save lead: %w", err)
	}
	return nil
}
