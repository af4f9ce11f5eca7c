package gacha

import "time"

type PullRequest struct {
	BatchSize      int    `json:"batch_size"`      // 1 или размер партии (10)
	IdempotencyKey string `json:"idempotency_key"` // Ключ повтора, можно передать заголовком Idempotency-Key
}

type PullResult struct {
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Rarity          string    `json:"rarity"`
	IsDuplicate     bool      `json:"is_duplicate"`
	NewCount        int       `json:"new_count"`        // Сколько таких предметов у пользователя после крутки
	GuaranteeReason string    `json:"guarantee_reason"` // none, pity или batch-bonus
	Index           int       `json:"index"`
	DrawnAt         time.Time `json:"drawn_at"`
}

type PullResponse struct {
	BatchID  string        `json:"batch_id"`
	Replayed bool          `json:"replayed"` // Партия уже была записана ранее
	Results  []PullResult  `json:"results"`
	Stats    StatsResponse `json:"stats"`
}

type StatsResponse struct {
	TotalPulls     int            `json:"total_pulls"`
	CountsByRarity map[string]int `json:"counts_by_rarity"`
	TopTierRate    float64        `json:"top_tier_rate"`
	PityCounter    int            `json:"pity_counter"`
	PityThreshold  int            `json:"pity_threshold"`
	PullsUntilPity int            `json:"pulls_until_pity"` // Через сколько круток сработает гарант
	LastTopTierAt  *time.Time     `json:"last_top_tier_at,omitempty"`
}

type OwnedItem struct {
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Rarity          string    `json:"rarity"`
	Count           int       `json:"count"`
	FirstObtainedAt time.Time `json:"first_obtained_at"`
	LastObtainedAt  time.Time `json:"last_obtained_at"`
	LastObtainedVia string    `json:"last_obtained_via"`
}

type CollectionResponse struct {
	Items []OwnedItem `json:"items"`
}

type HistoryEntry struct {
	BatchID        string       `json:"batch_id"`
	IdempotencyKey string       `json:"idempotency_key"`
	RequestedSize  int          `json:"requested_size"`
	CreatedAt      time.Time    `json:"created_at"`
	Results        []PullResult `json:"results"`
}

type HistoryResponse struct {
	Batches []HistoryEntry `json:"batches"`
}
