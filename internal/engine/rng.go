package engine

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// RandomSource - источник случайности, значения в [0, 1)
type RandomSource interface {
	Float64() float64
}

// cryptoRNG - источник по умолчанию, безопасен для конкурентного использования
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		return rand.Float64()
	}
	// 53 бита мантиссы -> [0, 1)
	u := binary.BigEndian.Uint64(buf[:]) >> 11
	return float64(u) / (1 << 53)
}

// DefaultRNG возвращает криптографический источник
func DefaultRNG() RandomSource { return cryptoRNG{} }

// seededRNG - воспроизводимый источник (симуляции, тесты). Не потокобезопасен.
type seededRNG struct{ r *rand.Rand }

// NewSeededRNG - детерминированный источник на PCG
func NewSeededRNG(seed uint64) RandomSource {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 { return s.r.Float64() }

// ScriptedRNG отдает заранее заданную последовательность, последнее значение повторяется.
// Нужен, чтобы детерминированно попадать в граничные случаи гаранта.
type ScriptedRNG struct {
	mu     sync.Mutex
	values []float64
	pos    int
}

func NewScriptedRNG(values ...float64) *ScriptedRNG {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &ScriptedRNG{values: values}
}

func (s *ScriptedRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.pos]
	if s.pos < len(s.values)-1 {
		s.pos++
	}
	return v
}

// Calls - текущая позиция в последовательности
func (s *ScriptedRNG) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
