package dashboard

// position orders messages inside one conversation.
type position struct {
	at int64
	id string
}

func (p position) after(o position) bool {
	if p.at != o.at {
		return p.at > o.at
	}
	return p.id > o.id
}

// appliedSet remembers which messages already moved the unread counters. It
// keeps the newest limit entries; anything at or below the watermark counts as
// seen.
type appliedSet struct {
	limit     int
	ids       map[string]position
	watermark position
}

func newAppliedSet(limit int) *appliedSet {
	return &appliedSet{limit: limit, ids: make(map[string]position)}
}

func (s *appliedSet) seen(p position) bool {
	return s.recorded(p) || s.expired(p)
}

func (s *appliedSet) recorded(p position) bool {
	_, ok := s.ids[p.id]
	return ok
}

// expired reports a position at or below the watermark that is no longer,
// or never was, kept by id.
func (s *appliedSet) expired(p position) bool {
	return !s.recorded(p) && s.watermark.id != "" && !p.after(s.watermark)
}

func (s *appliedSet) add(p position) {
	s.ids[p.id] = p
	for len(s.ids) > s.limit {
		s.evictOldest()
	}
}

// raise marks everything up to p as seen without keeping ids.
func (s *appliedSet) raise(p position) {
	if p.after(s.watermark) {
		s.watermark = p
	}
	for id, q := range s.ids {
		if !q.after(s.watermark) {
			delete(s.ids, id)
		}
	}
}

func (s *appliedSet) evictOldest() {
	var oldest position
	first := true
	for _, p := range s.ids {
		if first || oldest.after(p) {
			oldest = p
			first = false
		}
	}
	delete(s.ids, oldest.id)
	if oldest.after(s.watermark) {
		s.watermark = oldest
	}
}
