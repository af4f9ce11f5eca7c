package model

import "time"

// PullRequest - запрос на крутку
type PullRequest struct {
	UserID         string
	BatchSize      int
	IdempotencyKey string
}

// PullOutcome - результат слота вместе с итогом записи во владение
type PullOutcome struct {
	DrawResult
	IsDuplicate bool `json:"is_duplicate"`
	NewCount    int  `json:"new_count"`
}

// PullResponse - ответ на крутку
type PullResponse struct {
	BatchID  string
	Results  []PullOutcome
	Replayed bool // true, если партия уже была записана и возвращена без повторного розыгрыша
	Stats    Stats
}

// BatchEntry - запись истории о партии. Только добавляется, никогда не меняется.
type BatchEntry struct {
	BatchID        string
	UserID         string
	IdempotencyKey string
	RequestedSize  int
	Results        []PullOutcome
	CreatedAt      time.Time
}

// OwnedItem - запись владения предметом
type OwnedItem struct {
	UserID          string
	Identity        Identity
	Count           int
	FirstObtainedAt time.Time
	LastObtainedAt  time.Time
	LastObtainedVia string // ID партии, в которой предмет выпал последний раз
}

// Stats - агрегированная статистика пользователя, выводится из истории и состояния гаранта
type Stats struct {
	TotalPulls     int
	CountsByRarity map[Rarity]int
	TopTierRate    float64
	PityCounter    int
	PityThreshold  int
	LastTopTierAt  *time.Time
}

// Highlights - сколько редких предметов выпало в партии, для уведомлений
type Highlights struct {
	Epic      int `json:"epic"`
	Legendary int `json:"legendary"`
}

// Empty - нечего отправлять
func (h Highlights) Empty() bool {
	return h.Epic == 0 && h.Legendary == 0
}

// HighlightsOf считает эпические и легендарные результаты партии
func HighlightsOf(results []PullOutcome) Highlights {
	var h Highlights
	for _, res := range results {
		switch res.Rarity {
		case Epic:
			h.Epic++
		case Legendary:
			h.Legendary++
		case Common, Rare:
		}
	}
	return h
}
