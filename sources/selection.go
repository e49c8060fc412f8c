package sources

// Resolution is the result of matching the two persisted slots against a
// fresh directory snapshot. Slots entries are nil when unresolved; Count
// is how many resolved (0, 1 or 2).
type Resolution struct {
	Slots [2]*Source
	Count int
}

// Selection owns the two persisted target slots. It lives on the
// coordinator goroutine; every mutation is persisted by the caller
// immediately afterwards.
type Selection struct {
	ids [2]string
}

func NewSelection(slot1, slot2 string) Selection {
	return Selection{ids: [2]string{slot1, slot2}}
}

func (s *Selection) IDs() [2]string {
	return s.ids
}

// Resolve matches each persisted identifier against the snapshot. A slot
// resolves only when its id is present; everything else reduces Count.
func (s *Selection) Resolve(snapshot []Source) Resolution {
	var res Resolution
	for i, id := range s.ids {
		if id == "" {
			continue
		}
		for _, src := range snapshot {
			if src.ID == id {
				cp := src
				res.Slots[i] = &cp
				res.Count++
				break
			}
		}
	}
	return res
}

// Select assigns id to the first empty slot (slot 1 preferred). When both
// slots are taken, a slot whose source vanished from the snapshot may be
// replaced; two resolvable slots reject the request. Selecting an id a
// slot already holds is also rejected. Returns the slot index on success.
func (s *Selection) Select(id string, snapshot []Source) (int, bool) {
	if id == "" {
		return 0, false
	}
	for _, held := range s.ids {
		if held == id {
			return 0, false
		}
	}
	for i, held := range s.ids {
		if held == "" {
			s.ids[i] = id
			return i, true
		}
	}
	for i, held := range s.ids {
		if !contains(snapshot, held) {
			s.ids[i] = id
			return i, true
		}
	}
	return 0, false
}

// Deselect clears whichever slot holds id. Returns the slot index and
// whether anything changed.
func (s *Selection) Deselect(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	for i, held := range s.ids {
		if held == id {
			s.ids[i] = ""
			return i, true
		}
	}
	return 0, false
}

func contains(snapshot []Source, id string) bool {
	for _, src := range snapshot {
		if src.ID == id {
			return true
		}
	}
	return false
}
