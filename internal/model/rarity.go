package model

import (
	"fmt"
	"strings"
)

// Rarity - редкость предмета. Порядок значений важен: сравнения "не ниже" идут по нему.
type Rarity int

const (
	Common Rarity = iota
	Rare
	Epic
	Legendary
)

// TopRarity - высшая редкость, на которую срабатывает гарант
const TopRarity = Legendary

// Rarities возвращает все редкости в каноническом порядке (от низшей к высшей)
func Rarities() []Rarity {
	return []Rarity{Common, Rare, Epic, Legendary}
}

func (r Rarity) String() string {
	switch r {
	case Common:
		return "common"
	case Rare:
		return "rare"
	case Epic:
		return "epic"
	case Legendary:
		return "legendary"
	default:
		return fmt.Sprintf("rarity(%d)", int(r))
	}
}

// Valid - входит ли значение в закрытый набор редкостей
func (r Rarity) Valid() bool {
	switch r {
	case Common, Rare, Epic, Legendary:
		return true
	default:
		return false
	}
}

// AtLeast - редкость r не ниже min
func (r Rarity) AtLeast(min Rarity) bool {
	return r >= min
}

// IsTop - является ли редкость высшей
func (r Rarity) IsTop() bool {
	switch r {
	case Legendary:
		return true
	case Common, Rare, Epic:
		return false
	default:
		return false
	}
}

// ParseRarity разбирает строковое имя редкости
func ParseRarity(s string) (Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "common":
		return Common, nil
	case "rare":
		return Rare, nil
	case "epic":
		return Epic, nil
	case "legendary":
		return Legendary, nil
	default:
		return 0, fmt.Errorf("unknown rarity %q", s)
	}
}

func (r Rarity) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid rarity %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rarity) UnmarshalText(text []byte) error {
	parsed, err := ParseRarity(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
