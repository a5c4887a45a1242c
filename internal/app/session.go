package app

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"screening-quiz-service/internal/domain"
	"screening-quiz-service/internal/scoring"
)

type submitState int

const (
	submitIdle submitState = iota
	submitInFlight
	submitRevealed
)

// Session owns the answer map and current position for one quiz run. Position
// len(questions) is the terminal Completed state. The engine is event driven
// and effectively single threaded per session; the mutex only protects against
// a misbehaving transport driving one session from two goroutines.
type Session struct {
	id        string
	createdAt time.Time
	now       func() time.Time

	mu        sync.Mutex
	questions []domain.Question
	answers   domain.AnswerMap
	pos       int
	email     string
	phone     string
	submit    submitState
}

func newSession(id string, questions []domain.Question, now func() time.Time) *Session {
	return &Session{
		id:        id,
		createdAt: now(),
		now:       now,
		questions: questions,
		answers:   domain.AnswerMap{},
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Questions returns the session's built sequence. The slice is shared; callers
// must treat it as read-only.
func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// Current returns the question at the current position, or false once completed.
func (s *Session) Current() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.pos], true
}

// Position returns the current position; len(questions) once completed.
func (s *Session) Position() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

// Completed reports whether the terminal state has been reached.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos >= len(s.questions)
}

// Progress returns (position+1)/N as a percentage, clamped to 100.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return 100
	}
	p := float64(s.pos+1) / float64(len(s.questions)) * 100
	if p > 100 {
		return 100
	}
	return p
}

// SelectAnswer inserts or overwrites the answer for questionID. It never moves
// the position and accepts writes for any question, not just the current one.
func (s *Session) SelectAnswer(questionID string, answer domain.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers[questionID] = answer
}

// IsAnswered reports whether the question at position holds a valid answer.
// Scored and classification questions need a committed score or tag, the year
// question an integer within 1900..current year, the category question one of
// the fixed region codes.
func (s *Session) IsAnswered(position int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAnsweredLocked(position)
}

func (s *Session) isAnsweredLocked(position int) bool {
	if position < 0 || position >= len(s.questions) {
		return false
	}
	q := s.questions[position]
	ans, ok := s.answers[q.ID]
	if !ok {
		return false
	}
	switch q.Type {
	case domain.QuestionScored:
		return ans.Kind == domain.AnswerScore
	case domain.QuestionClassification:
		return ans.Kind == domain.AnswerTag && ans.Tag != ""
	case domain.QuestionYear:
		if ans.Kind != domain.AnswerYear {
			return false
		}
		year, err := strconv.Atoi(strings.TrimSpace(ans.Year))
		if err != nil {
			return false
		}
		return year >= 1900 && year <= s.now().Year()
	case domain.QuestionCategory:
		return ans.Kind == domain.AnswerCategory && domain.ValidRegion(ans.Category)
	default:
		return true
	}
}

// CanProceed reports whether the current question is validly answered.
func (s *Session) CanProceed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isAnsweredLocked(s.pos)
}

// GoNext advances one position when the current question is answered. From the
// last question it transitions to Completed. Returns whether it moved.
func (s *Session) GoNext() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos >= len(s.questions) {
		return false
	}
	if !s.isAnsweredLocked(s.pos) {
		return false
	}
	s.pos++
	return true
}

// GoBack steps one position back; a no-op at position 0. From Completed it
// returns to the last question.
func (s *Session) GoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos == 0 {
		return false
	}
	s.pos--
	return true
}

// Finish transitions to Completed from the last question. Equivalent to
// GoNext at the final position; refused anywhere else.
func (s *Session) Finish() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos != len(s.questions)-1 {
		return s.pos >= len(s.questions)
	}
	if !s.isAnsweredLocked(s.pos) {
		return false
	}
	s.pos++
	return true
}

// Result recomputes the quiz result from the full answer map. Only valid once
// Completed; recomputation is cheap and always yields the same value.
func (s *Session) Result() (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pos < len(s.questions) {
		return domain.Result{}, domain.ErrQuizIncomplete
	}
	return scoring.Process(s.answers, s.now())
}

// SetContactEmail stores the email field; validation happens at submit time.
func (s *Session) SetContactEmail(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = v
}

// SetContactPhone stores the phone field; validation happens at submit time.
func (s *Session) SetContactPhone(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phone = v
}

// Revealed reports whether a submission has succeeded for this session.
func (s *Session) Revealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submit == submitRevealed
}

// beginSubmit validates preconditions and moves the submission state to
// in-flight, returning everything the engine needs to build the payload.
// Exactly one submission can be outstanding; a second concurrent call gets
// ErrSubmitInFlight instead of creating a duplicate record.
func (s *Session) beginSubmit() (domain.AnswerMap, domain.Result, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos < len(s.questions) {
		return nil, domain.Result{}, "", "", domain.ErrQuizIncomplete
	}
	switch s.submit {
	case submitRevealed:
		return nil, domain.Result{}, "", "", domain.ErrAlreadyRevealed
	case submitInFlight:
		return nil, domain.Result{}, "", "", domain.ErrSubmitInFlight
	}

	result, err := scoring.Process(s.answers, s.now())
	if err != nil {
		return nil, domain.Result{}, "", "", err
	}

	s.submit = submitInFlight
	return s.answers.Clone(), result, s.email, s.phone, nil
}

// endSubmit resolves the in-flight submission. Success flips the irreversible
// revealed flag; failure returns to idle so the user can retry with the same
// or corrected contact details, answers and result intact.
func (s *Session) endSubmit(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submit != submitInFlight {
		return
	}
	if err == nil {
		s.submit = submitRevealed
	} else {
		s.submit = submitIdle
	}
}

// reset returns the session to its initial state with a freshly built
// sequence. Everything goes: answers, position, contact and the reveal.
func (s *Session) reset(questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = questions
	s.answers = domain.AnswerMap{}
	s.pos = 0
	s.email = ""
	s.phone = ""
	s.submit = submitIdle
}

// Snapshot is the serializable view of mutable session state, used by stores
// that mirror sessions outside the process.
type Snapshot struct {
	ID        string           `json:"id"`
	Position  int              `json:"position"`
	Answers   domain.AnswerMap `json:"answers"`
	Email     string           `json:"email"`
	Phone     string           `json:"phone"`
	Revealed  bool             `json:"revealed"`
	CreatedAt time.Time        `json:"createdAt"`
}

// Snapshot captures the session's mutable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		Position:  s.pos,
		Answers:   s.answers.Clone(),
		Email:     s.email,
		Phone:     s.phone,
		Revealed:  s.submit == submitRevealed,
		CreatedAt: s.createdAt,
	}
}

// Restore applies a previously captured snapshot, clamping the position into
// the valid range for the current sequence.
func (s *Session) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = snap.Answers.Clone()
	s.pos = snap.Position
	if s.pos < 0 {
		s.pos = 0
	}
	if s.pos > len(s.questions) {
		s.pos = len(s.questions)
	}
	s.email = snap.Email
	s.phone = snap.Phone
	if snap.Revealed {
		s.submit = submitRevealed
	} else {
		s.submit = submitIdle
	}
}
