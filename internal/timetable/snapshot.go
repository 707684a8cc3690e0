package timetable

// Build assembles a snapshot from a completed scrape pass. The rooms are
// copied, so later changes to the caller's slice do not leak in. The
// timestamp is kept in UTC.
func Build(meta Metadata, rooms []RoomSchedule) *Snapshot {
	meta.Timestamp = meta.Timestamp.UTC()
	cp := make([]RoomSchedule, len(rooms))
	for i, r := range rooms {
		cp[i] = r.clone()
	}
	return &Snapshot{
		Metadata:   meta,
		TotalRooms: len(cp),
		Rooms:      cp,
	}
}

// Lookup finds a room by exact code or label match. The returned schedule
// is a copy.
func (s *Snapshot) Lookup(id string) (RoomSchedule, bool) {
	for _, r := range s.Rooms {
		if r.Room.Matches(id) {
			return r.clone(), true
		}
	}
	return RoomSchedule{}, false
}

// WithAnalysis returns a new snapshot carrying report. The receiver is left
// untouched; room data is shared since neither side mutates it.
func (s *Snapshot) WithAnalysis(report *Report) *Snapshot {
	c := *s
	c.Analysis = report
	return &c
}

// resolveRoom returns the full identifier of the room with code, falling
// back to a bare code.
func (s *Snapshot) resolveRoom(code string) RoomID {
	for _, r := range s.Rooms {
		if r.Room.Code == code {
			return r.Room
		}
	}
	return RoomID{Code: code}
}
