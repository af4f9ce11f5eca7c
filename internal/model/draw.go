package model

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// ProbabilityEpsilon - допустимое отклонение суммы вероятностей от 1
const ProbabilityEpsilon = 1e-9

// Distribution - вероятности выпадения по редкостям
type Distribution map[Rarity]float64

// Sum - суммарная вероятность по всем редкостям
func (d Distribution) Sum() float64 {
	var sum float64
	for _, r := range Rarities() {
		sum += d[r]
	}
	return sum
}

// Validate проверяет, что все ключи известны, веса конечны и неотрицательны, а сумма равна 1
func (d Distribution) Validate() error {
	if len(d) == 0 {
		return fmt.Errorf("%w: empty distribution", ErrConfig)
	}
	for r, p := range d {
		if !r.Valid() {
			return fmt.Errorf("%w: unknown rarity %d", ErrConfig, int(r))
		}
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return fmt.Errorf("%w: probability for %s must be a finite value >= 0, got %v", ErrConfig, r, p)
		}
	}
	if sum := d.Sum(); math.Abs(sum-1) > ProbabilityEpsilon {
		return fmt.Errorf("%w: probabilities must sum to 1, got %.12f", ErrConfig, sum)
	}
	return nil
}

// BatchPolicy - правило гаранта для партии: хотя бы один результат не ниже MinimumRarity
type BatchPolicy struct {
	Size          int
	MinimumRarity Rarity
	Override      Distribution
}

// DrawConfig - полная конфигурация розыгрыша
type DrawConfig struct {
	Probabilities Distribution
	PityThreshold int
	Batch         BatchPolicy
}

// Validate - проверка конфигурации при загрузке. Ошибка всегда оборачивает ErrConfig.
func (c DrawConfig) Validate() error {
	var errs []string

	if err := c.Probabilities.Validate(); err != nil {
		errs = append(errs, "probabilities: "+err.Error())
	}
	if c.PityThreshold < 1 {
		errs = append(errs, "pity_threshold must be >= 1")
	}
	if c.Batch.Size < 2 {
		errs = append(errs, "batch.size must be >= 2")
	}
	if !c.Batch.MinimumRarity.Valid() {
		errs = append(errs, "batch.minimum_rarity is unknown")
	}
	if err := c.Batch.Override.Validate(); err != nil {
		errs = append(errs, "batch.override: "+err.Error())
	}
	for r, p := range c.Batch.Override {
		if p > 0 && !r.AtLeast(c.Batch.MinimumRarity) {
			errs = append(errs, fmt.Sprintf("batch.override: %s is below minimum_rarity %s", r, c.Batch.MinimumRarity))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrConfig, strings.Join(errs, "; "))
	}
	return nil
}

// GuaranteeReason - почему результат получил свою редкость
type GuaranteeReason string

const (
	ReasonNone       GuaranteeReason = "none"
	ReasonPity       GuaranteeReason = "pity"
	ReasonBatchBonus GuaranteeReason = "batch-bonus"
)

// Identity - ключ, по которому два предмета считаются одинаковыми. Поставляется каталогом.
type Identity struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Rarity   Rarity `json:"rarity"`
}

// Key - каноничная строка для хранения владения
func (i Identity) Key() string {
	return strings.ToLower(strings.TrimSpace(i.Category)) + "/" +
		strings.ToLower(strings.TrimSpace(i.Title)) + "/" + i.Rarity.String()
}

// DrawResult - результат одного слота партии. После создания не меняется.
type DrawResult struct {
	Identity Identity        `json:"identity"`
	Rarity   Rarity          `json:"rarity"`
	PullID   string          `json:"pull_id"`
	Index    int             `json:"index"`
	Reason   GuaranteeReason `json:"reason"`
	DrawnAt  time.Time       `json:"drawn_at"`
}

// PityState - счетчик гаранта пользователя
type PityState struct {
	UserID    string
	Counter   int
	Threshold int
	UpdatedAt time.Time
}
