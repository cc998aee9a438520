package bot

import (
	"sync"
	"time"

	"gitlab.com/yelinaung/club-ledger/internal/period"
	"gitlab.com/yelinaung/club-ledger/internal/report"
)

// session is the per-chat period selection and its report widgets.
type session struct {
	mu     sync.Mutex
	sel    period.Selection
	report *report.Report360
}

func (s *session) selection() period.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

func (s *session) setSelection(sel period.Selection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = sel
}

// sessionStore hands out one session per chat. New sessions start on the
// current month.
type sessionStore struct {
	mu        sync.Mutex
	byChat    map[int64]*session
	newReport func() *report.Report360
	now       func() time.Time
}

func newSessionStore(newReport func() *report.Report360, now func() time.Time) *sessionStore {
	return &sessionStore{
		byChat:    make(map[int64]*session),
		newReport: newReport,
		now:       now,
	}
}

func (s *sessionStore) get(chatID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.byChat[chatID]; ok {
		return sess
	}
	sess := &session{
		sel:    period.Current(s.now()),
		report: s.newReport(),
	}
	s.byChat[chatID] = sess
	return sess
}
