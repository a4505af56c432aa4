package session

import "time"

// Acquire blocks until no other event for this session is in flight.
func (s *Session) Acquire() {
	s.handling.Lock()
}

// Release lets the next event for this session proceed.
func (s *Session) Release() {
	s.handling.Unlock()
}

// Touch records activity for the idle-expiry sweep.
func (s *Session) Touch() {
	s.LastActivity = time.Now()
}

// Reset returns the session to Idle and drops everything accumulated
// during the collection pass, including groups still waiting to settle.
func (s *Session) Reset() {
	s.State = Idle
	s.Photos = nil
	s.Caption = ""
	s.PromptSent = false
	s.PromptMsgID = 0

	if s.Groups != nil {
		s.Groups.Clear()
	}
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the session for userID, creating it on first contact.
func (s *Store) Get(userID int64) *Session {
	s.mu.RLock()

	sess, ok := s.sessions[userID]
	s.mu.RUnlock()

	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok = s.sessions[userID]; ok {
		return sess
	}

	sess = &Session{State: Idle, LastActivity: time.Now()}
	s.sessions[userID] = sess

	return sess
}

// Len reports how many sessions exist.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// ExpireIdle resets every non-idle session whose last activity is older
// than ttl. Abandoned mid-collection sessions would otherwise hold
// their photo buffers forever. Returns the number of sessions reset.
func (s *Store) ExpireIdle(ttl time.Duration) int {
	s.mu.RLock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	cutoff := time.Now().Add(-ttl)
	expired := 0

	for _, sess := range candidates {
		sess.Acquire()
		if sess.State != Idle && sess.LastActivity.Before(cutoff) {
			sess.Reset()
			expired++
		}
		sess.Release()
	}

	return expired
}
