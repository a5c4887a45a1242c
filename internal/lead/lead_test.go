package lead

import (
	"testing"
	"time"

	"screening-quiz-service/internal/catalog"
	"screening-quiz-service/internal/domain"
)

func TestValidContact(t *testing.T) {
	cases := []struct {
		email, phone string
		want         bool
	}{
		{"a@b.co", "", true},
		{"", "12345678", true},
		{"", "(04) 12 34 56 78", true},
		{"not-an-email", "123", false},
		{"", "1234567", false},
		{"", "", false},
		{"a@b.", "", false},
		{"@b.co", "", false},
		{"a@bco", "", false},
		{"a@b.co", "123", true},
	}
	for _, c := range cases {
		if got := ValidContact(c.email, c.phone); got != c.want {
			t.Fatalf("ValidContact(%q, %q): expected %v, got %v", c.email, c.phone, c.want, got)
		}
	}
}

func TestBuildPayloadTrimsAndSnapshots(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	answers := domain.AnswerMap{
		catalog.ItemNervous: domain.ScoreAnswer(1),
	}
	result := domain.Result{
		ScreeningTotal: 1,
		SeverityBand:   "minimal",
		DominantTag:    catalog.TagMoon,
		Outcome:        domain.Outcome{ID: "moon-full", Name: "The Full Moon"},
		ReferralRoute:  domain.RouteOnline,
	}

	payload := BuildPayload(answers, result, "  a@b.co ", "", "web-kiosk-1", now)

	if payload.Email == nil || *payload.Email != "a@b.co" {
		t.Fatalf("expected trimmed email, got %v", payload.Email)
	}
	if payload.Phone != nil {
		t.Fatalf("expected nil phone for empty input, got %v", *payload.Phone)
	}
	if payload.Source != Source || payload.ClientID != "web-kiosk-1" {
		t.Fatalf("expected source/client stamped, got %s/%s", payload.Source, payload.ClientID)
	}
	if !payload.CreatedAt.Equal(now) {
		t.Fatalf("expected timestamp %v, got %v", now, payload.CreatedAt)
	}

	// Later session writes must not reach the snapshot.
	answers[catalog.ItemNervous] = domain.ScoreAnswer(3)
	if payload.Answers[catalog.ItemNervous].Score != 1 {
		t.Fatalf("payload answers aliased live map")
	}
}
