package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"screening-quiz-service/internal/app"
	"screening-quiz-service/internal/catalog"
	"screening-quiz-service/internal/domain"
	"screening-quiz-service/internal/infra/memory"
	"screening-quiz-service/internal/scoring"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNavigationRefusesUnanswered(t *testing.T) {
	session := newTestSession(t, newTestEngine(t, memory.NewLeadSink()))

	if session.GoNext() {
		t.Fatalf("expected GoNext to refuse with no answer committed")
	}
	if session.Position() != 0 {
		t.Fatalf("expected position 0, got %d", session.Position())
	}

	session.SelectAnswer(catalog.ItemNervous, domain.ScoreAnswer(1))
	if !session.GoNext() {
		t.Fatalf("expected GoNext to advance after answering")
	}
	if session.Position() != 1 {
		t.Fatalf("expected position 1, got %d", session.Position())
	}
}

func TestGoBackBoundaries(t *testing.T) {
	session := newTestSession(t, newTestEngine(t, memory.NewLeadSink()))

	if session.GoBack() {
		t.Fatalf("expected GoBack no-op at position 0")
	}

	answerEverything(session)
	walkToCompleted(t, session)
	if !session.Completed() {
		t.Fatalf("expected completed state")
	}

	// From Completed, GoBack returns to the last question.
	if !session.GoBack() {
		t.Fatalf("expected GoBack from completed")
	}
	if session.Completed() {
		t.Fatalf("expected to be back on the last question")
	}
	if session.Position() != len(catalog.Sequence)-1 {
		t.Fatalf("expected position %d, got %d", len(catalog.Sequence)-1, session.Position())
	}
}

func TestProgressMonotonicAndClamped(t *testing.T) {
	session := newTestSession(t, newTestEngine(t, memory.NewLeadSink()))
	answerEverything(session)

	last := 0.0
	for i := 0; i < len(catalog.Sequence)+3; i++ {
		p := session.Progress()
		if p < last {
			t.Fatalf("progress went backwards: %f after %f", p, last)
		}
		if p > 100 {
			t.Fatalf("progress exceeded 100: %f", p)
		}
		last = p
		session.GoNext()
	}
	if last != 100 {
		t.Fatalf("expected 100 at completion, got %f", last)
	}
}

func TestYearAndRegionValidity(t *testing.T) {
	session := newTestSession(t, newTestEngine(t, memory.NewLeadSink()))
	yearPos := indexOf(t, catalog.ItemBirthYear)
	regionPos := indexOf(t, catalog.ItemRegion)

	for _, raw := range []string{"", "soon", "1899", "2026"} {
		session.SelectAnswer(catalog.ItemBirthYear, domain.YearAnswer(raw))
		if session.IsAnswered(yearPos) {
			t.Fatalf("expected year %q to read as unanswered", raw)
		}
	}
	session.SelectAnswer(catalog.ItemBirthYear, domain.YearAnswer(" 2005 "))
	if !session.IsAnswered(yearPos) {
		t.Fatalf("expected padded numeric year to be valid")
	}

	session.SelectAnswer(catalog.ItemRegion, domain.CategoryAnswer("atlantis"))
	if session.IsAnswered(regionPos) {
		t.Fatalf("expected unknown region code to read as unanswered")
	}
	session.SelectAnswer(catalog.ItemRegion, domain.CategoryAnswer(domain.RegionNZ))
	if !session.IsAnswered(regionPos) {
		t.Fatalf("expected fixed region code to be valid")
	}
}

func TestSelectAnswerAheadOfPositionIsSafe(t *testing.T) {
	session := newTestSession(t, newTestEngine(t, memory.NewLeadSink()))

	// Writing a later question's answer while viewing the first must not crash
	// or move the position.
	session.SelectAnswer(catalog.ItemRegion, domain.CategoryAnswer(domain.RegionAustralia))
	if session.Position() != 0 {
		t.Fatalf("expected position unchanged, got %d", session.Position())
	}
}

func TestResultOnlyAfterCompleted(t *testing.T) {
	session := newTestSession(t, newTestEngine(t, memory.NewLeadSink()))

	if _, err := session.Result(); !errors.Is(err, domain.ErrQuizIncomplete) {
		t.Fatalf("expected ErrQuizIncomplete, got %v", err)
	}

	answerEverything(session)
	walkToCompleted(t, session)

	result, err := session.Result()
	if err != nil {
		t.Fatalf("result: %v", err)
	}
	if result.ScreeningTotal != 0 || result.SeverityBand != scoring.BandMinimal {
		t.Fatalf("expected minimal band at total 0, got %+v", result)
	}
	if result.DominantTag != catalog.TagMoon {
		t.Fatalf("expected moon dominant, got %s", result.DominantTag)
	}
	if result.ReferralRoute != domain.RouteLocalYouth {
		t.Fatalf("expected youth route, got %s", result.ReferralRoute)
	}
}

func TestSubmitAndReveal(t *testing.T) {
	sink := memory.NewLeadSink()
	engine := newTestEngine(t, sink)
	session := newTestSession(t, engine)
	answerEverything(session)
	walkToCompleted(t, session)

	session.SetContactEmail("a@b.co")
	if err := engine.SubmitAndReveal(context.Background(), session); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !session.Revealed() {
		t.Fatalf("expected reveal after successful submit")
	}

	leads := sink.Leads()
	if len(leads) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(leads))
	}
	if leads[0].Email == nil || *leads[0].Email != "a@b.co" {
		t.Fatalf("expected email on lead, got %v", leads[0].Email)
	}
	if leads[0].Source != "screening-quiz" {
		t.Fatalf("expected source tag, got %s", leads[0].Source)
	}

	if err := engine.SubmitAndReveal(context.Background(), session); !errors.Is(err, domain.ErrAlreadyRevealed) {
		t.Fatalf("expected ErrAlreadyRevealed on second submit, got %v", err)
	}
	if len(sink.Leads()) != 1 {
		t.Fatalf("reveal must be irreversible and not duplicate leads")
	}
}

func TestSubmitRejectsInvalidContact(t *testing.T) {
	sink := memory.NewLeadSink()
	engine := newTestEngine(t, sink)
	session := newTestSession(t, engine)
	answerEverything(session)
	walkToCompleted(t, session)

	session.SetContactPhone("1234567") // seven digits, one short
	if err := engine.SubmitAndReveal(context.Background(), session); !errors.Is(err, domain.ErrInvalidContact) {
		t.Fatalf("expected ErrInvalidContact, got %v", err)
	}
	if len(sink.Leads()) != 0 {
		t.Fatalf("sink must not be invoked for invalid contact")
	}
	if session.Revealed() {
		t.Fatalf("reveal must stay locked")
	}
}

func TestSubmitFailureIsRetriable(t *testing.T) {
	sink := &failingSink{fail: 1}
	engine := newTestEngineWithSink(t, sink)
	session := newTestSession(t, engine)
	answerEverything(session)
	walkToCompleted(t, session)
	session.SetContactPhone("0412345678")

	err := engine.SubmitAndReveal(context.Background(), session)
	if err == nil || session.Revealed() {
		t.Fatalf("expected surfaced failure without reveal, got err=%v revealed=%v", err, session.Revealed())
	}

	// Same contact data, second attempt succeeds; no state was lost.
	if err := engine.SubmitAndReveal(context.Background(), session); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !session.Revealed() || sink.saved != 1 {
		t.Fatalf("expected reveal after retry with one stored lead, got revealed=%v saved=%d", session.Revealed(), sink.saved)
	}
}

func TestConcurrentSubmitSingleLead(t *testing.T) {
	sink := &slowSink{delay: 50 * time.Millisecond}
	engine := newTestEngineWithSink(t, sink)
	session := newTestSession(t, engine)
	answerEverything(session)
	walkToCompleted(t, session)
	session.SetContactEmail("a@b.co")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = engine.SubmitAndReveal(context.Background(), session)
		}(i)
	}
	wg.Wait()

	if sink.saved != 1 {
		t.Fatalf("double submit created %d leads", sink.saved)
	}
	inFlight := 0
	for _, err := range errs {
		if errors.Is(err, domain.ErrSubmitInFlight) {
			inFlight++
		}
	}
	if inFlight != 1 {
		t.Fatalf("expected exactly one ErrSubmitInFlight, got %v", errs)
	}
}

func TestResetClearsEverything(t *testing.T) {
	engine := newTestEngine(t, memory.NewLeadSink())
	session := newTestSession(t, engine)
	answerEverything(session)
	walkToCompleted(t, session)
	session.SetContactEmail("a@b.co")

	if err := engine.Reset(context.Background(), session); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if session.Position() != 0 || session.Completed() {
		t.Fatalf("expected fresh session after reset")
	}
	if session.IsAnswered(0) {
		t.Fatalf("expected answers cleared")
	}
	if _, err := session.Result(); !errors.Is(err, domain.ErrQuizIncomplete) {
		t.Fatalf("expected incomplete after reset, got %v", err)
	}
}

func TestRestoreResetsSubmissionState(t *testing.T) {
	sink := memory.NewLeadSink()
	engine := newTestEngine(t, sink)
	session := newTestSession(t, engine)
	answerEverything(session)
	walkToCompleted(t, session)
	session.SetContactEmail("a@b.co")

	// Snapshot taken before any submission carries Revealed=false.
	snap := session.Snapshot()

	if err := engine.SubmitAndReveal(context.Background(), session); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !session.Revealed() {
		t.Fatalf("expected reveal after submit")
	}

	session.Restore(snap)
	if session.Revealed() {
		t.Fatalf("expected restoring an unrevealed snapshot to clear the reveal")
	}
	if err := engine.SubmitAndReveal(context.Background(), session); err != nil {
		t.Fatalf("submit after restore: %v", err)
	}
	if len(sink.Leads()) != 2 {
		t.Fatalf("expected submission to work again after restore, got %d leads", len(sink.Leads()))
	}
}

func TestStartSessionIsIdempotentPerID(t *testing.T) {
	engine := newTestEngine(t, memory.NewLeadSink())
	first, err := engine.StartSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	second, err := engine.StartSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("start again: %v", err)
	}
	if first != second {
		t.Fatalf("expected the same session for the same ID")
	}
}

type failingSink struct {
	fail  int
	saved int
}

func (s *failingSink) SaveLead(context.Context, domain.LeadPayload) error {
	if s.fail > 0 {
		s.fail--
		return errors.New("sink unavailable")
	}
	s.saved++
	return nil
}

type slowSink struct {
	delay time.Duration
	mu    sync.Mutex
	saved int
}

func (s *slowSink) SaveLead(context.Context, domain.LeadPayload) error {
	time.Sleep(s.delay)
	s.mu.Lock()
	s.saved++
	s.mu.Unlock()
	return nil
}

func newTestEngine(t *testing.T, sink *memory.LeadSink) *app.Engine {
	t.Helper()
	return newTestEngineWithSink(t, sink)
}

func newTestEngineWithSink(t *testing.T, sink interface {
	SaveLead(context.Context, domain.LeadPayload) error
}) *app.Engine {
	t.Helper()
	repo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(map[string]domain.Catalog{
		"default": catalog.Default(),
	}), 5*time.Minute)
	engine, err := app.NewEngine(repo, memory.NewSessionStore(), sink, "default", "test-client", 2*time.Second,
		app.WithClock(func() time.Time { return testNow }), app.WithShuffleSeed(42))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func newTestSession(t *testing.T, engine *app.Engine) *app.Session {
	t.Helper()
	session, err := engine.StartSession(context.Background(), "s1")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return session
}

// answerEverything commits a valid answer for every question: zeros on the
// screening scale, moon on every classification item, a birth year giving age
// 20 and the local region.
func answerEverything(session *app.Session) {
	for _, id := range catalog.ScreeningItems {
		session.SelectAnswer(id, domain.ScoreAnswer(0))
	}
	for _, id := range []string{catalog.ItemElement, catalog.ItemEnergy, catalog.ItemPlace, catalog.ItemTime, catalog.ItemCompanion} {
		session.SelectAnswer(id, domain.TagAnswer(catalog.TagMoon))
	}
	session.SelectAnswer(catalog.ItemBirthYear, domain.YearAnswer("2005"))
	session.SelectAnswer(catalog.ItemRegion, domain.CategoryAnswer(domain.RegionAustralia))
}

func indexOf(t *testing.T, id string) int {
	t.Helper()
	for i, qid := range catalog.Sequence {
		if qid == id {
			return i
		}
	}
	t.Fatalf("question %s not in sequence", id)
	return -1
}

func walkToCompleted(t *testing.T, session *app.Session) {
	t.Helper()
	for i := 0; i < len(catalog.Sequence); i++ {
		if !session.GoNext() {
			t.Fatalf("expected GoNext to advance at position %d", session.Position())
		}
	}
	if !session.Completed() {
		t.Fatalf("expected completed after walking the sequence")
	}
}
