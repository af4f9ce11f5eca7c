package model

// NewStats - пустая статистика со всеми редкостями в CountsByRarity
func NewStats() Stats {
	counts := make(map[Rarity]int, len(Rarities()))
	for _, r := range Rarities() {
		counts[r] = 0
	}
	return Stats{CountsByRarity: counts}
}

// AddBatch досчитывает статистику партией из истории
func (s *Stats) AddBatch(entry BatchEntry) {
	if s.CountsByRarity == nil {
		*s = NewStats()
	}
	s.TotalPulls += entry.RequestedSize
	for _, res := range entry.Results {
		s.CountsByRarity[res.Rarity]++
		if res.Rarity.IsTop() && (s.LastTopTierAt == nil || res.DrawnAt.After(*s.LastTopTierAt)) {
			at := res.DrawnAt
			s.LastTopTierAt = &at
		}
	}
	s.TopTierRate = 0
	if s.TotalPulls > 0 {
		s.TopTierRate = float64(s.CountsByRarity[TopRarity]) / float64(s.TotalPulls)
	}
}

// SetPity подставляет текущее состояние гаранта
func (s *Stats) SetPity(state PityState) {
	s.PityCounter = state.Counter
	s.PityThreshold = state.Threshold
}

// Clone - глубокая копия, кэш не должен отдавать свою карту наружу
func (s Stats) Clone() Stats {
	out := s
	out.CountsByRarity = make(map[Rarity]int, len(s.CountsByRarity))
	for r, c := range s.CountsByRarity {
		out.CountsByRarity[r] = c
	}
	if s.LastTopTierAt != nil {
		at := *s.LastTopTierAt
		out.LastTopTierAt = &at
	}
	return out
}
