package session

// RecordResult stores whether the answer at index was judged correct.
func (s *Store) RecordResult(index int, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[index] = correct
}

// Results returns a copy of the per-question correctness.
func (s *Store) Results() map[int]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneBools(s.results)
}

// MatchPair records a matched pair on the matching board.
func (s *Store) MatchPair(left, right string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matched[left] = right
}

// AddMatchMiss counts a wrong matching attempt.
func (s *Store) AddMatchMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchMisses++
}

// MatchBoard returns the matched pairs and the wrong attempts so far.
func (s *Store) MatchBoard() (map[string]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePairs(s.matched), s.matchMisses
}

// RecordSubAnswer stores one reading sub-answer and its verdict.
func (s *Store) RecordSubAnswer(sub int, answer string, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subAnswers[sub] = answer
	s.subCorrect[sub] = correct
}

// SubAnswers returns the reading sub-answers and verdicts so far.
func (s *Store) SubAnswers() (map[int]string, map[int]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneStrings(s.subAnswers), cloneBools(s.subCorrect)
}

func cloneBools(m map[int]bool) map[int]bool {
	out := make(map[int]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePairs(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
