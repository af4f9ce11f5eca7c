package converter

import (
	"gacha_backend/internal/api/dto/gacha"
	"gacha_backend/internal/model"
)

func ToPullRequest(userID string, req gacha.PullRequest) model.PullRequest {
	return model.PullRequest{
		UserID:         userID,
		BatchSize:      req.BatchSize,
		IdempotencyKey: req.IdempotencyKey,
	}
}

func ToPullResponse(resp model.PullResponse) gacha.PullResponse {
	return gacha.PullResponse{
		BatchID:  resp.BatchID,
		Replayed: resp.Replayed,
		Results:  toPullResults(resp.Results),
		Stats:    ToStatsResponse(resp.Stats),
	}
}

func ToStatsResponse(stats model.Stats) gacha.StatsResponse {
	counts := make(map[string]int, len(model.Rarities()))
	for _, r := range model.Rarities() {
		counts[r.String()] = stats.CountsByRarity[r]
	}
	untilPity := stats.PityThreshold - stats.PityCounter
	if untilPity < 0 {
		untilPity = 0
	}
	return gacha.StatsResponse{
		TotalPulls:     stats.TotalPulls,
		CountsByRarity: counts,
		TopTierRate:    stats.TopTierRate,
		PityCounter:    stats.PityCounter,
		PityThreshold:  stats.PityThreshold,
		PullsUntilPity: untilPity,
		LastTopTierAt:  stats.LastTopTierAt,
	}
}

func ToCollectionResponse(items []model.OwnedItem) gacha.CollectionResponse {
	result := make([]gacha.OwnedItem, len(items))
	for i, item := range items {
		result[i] = gacha.OwnedItem{
			Title:           item.Identity.Title,
			Category:        item.Identity.Category,
			Rarity:          item.Identity.Rarity.String(),
			Count:           item.Count,
			FirstObtainedAt: item.FirstObtainedAt,
			LastObtainedAt:  item.LastObtainedAt,
			LastObtainedVia: item.LastObtainedVia,
		}
	}
	return gacha.CollectionResponse{Items: result}
}

func ToHistoryResponse(entries []model.BatchEntry) gacha.HistoryResponse {
	result := make([]gacha.HistoryEntry, len(entries))
	for i, e := range entries {
		result[i] = gacha.HistoryEntry{
			BatchID:        e.BatchID,
			IdempotencyKey: e.IdempotencyKey,
			RequestedSize:  e.RequestedSize,
			CreatedAt:      e.CreatedAt,
			Results:        toPullResults(e.Results),
		}
	}
	return gacha.HistoryResponse{Batches: result}
}

func toPullResults(outcomes []model.PullOutcome) []gacha.PullResult {
	result := make([]gacha.PullResult, len(outcomes))
	for i, o := range outcomes {
		result[i] = gacha.PullResult{
			Title:           o.Identity.Title,
			Category:        o.Identity.Category,
			Rarity:          o.Rarity.String(),
			IsDuplicate:     o.IsDuplicate,
			NewCount:        o.NewCount,
			GuaranteeReason: string(o.Reason),
			Index:           o.Index,
			DrawnAt:         o.DrawnAt,
		}
	}
	return result
}
