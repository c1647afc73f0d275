package mission

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"

	"github.com/ashureev/helpdesk/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed missions.yaml
var missionsYAML []byte

type poolFile struct {
	Missions []domain.Mission `yaml:"missions"`
}

// PoolGenerator serves missions from a fixed list. It needs no model provider.
type PoolGenerator struct {
	missions []domain.Mission
	pick     func(n int) int
}

// NewPoolGenerator loads the embedded mission pool.
func NewPoolGenerator() (*PoolGenerator, error) {
	return ParsePool(missionsYAML)
}

// ParsePool builds a PoolGenerator from YAML with a top-level "missions" list.
func ParsePool(data []byte) (*PoolGenerator, error) {
	var f poolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse mission pool: %w", err)
	}
	if len(f.Missions) == 0 {
		return nil, fmt.Errorf("mission pool is empty")
	}
	for i, m := range f.Missions {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("mission %d: %w", i, err)
		}
	}
	return &PoolGenerator{missions: f.Missions, pick: rand.IntN}, nil
}

// Generate implements Generator.
func (p *PoolGenerator) Generate(context.Context) (domain.Mission, error) {
	return p.missions[p.pick(len(p.missions))], nil
}

// List returns a copy of every mission in the pool.
func (p *PoolGenerator) List() []domain.Mission {
	out := make([]domain.Mission, len(p.missions))
	copy(out, p.missions)
	return out
}
