// Package data loads read-only game-balance tables at startup.
package data

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// Monster is one entry of the monster balance table.
type Monster struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	HP   string `json:"hp"`
}

type monsterFile struct {
	Data []Monster `json:"data"`
}

// Provider serves static game data. Loaded once at startup and read-only
// afterwards, so accessors need no locking.
type Provider struct {
	monsters map[string]Monster
	log      *zap.Logger
}

// Load reads the monster table from the given JSON asset.
func Load(monsterPath string, log *zap.Logger) (*Provider, error) {
	raw, err := os.ReadFile(monsterPath)
	if err != nil {
		return nil, fmt.Errorf("read monster data: %w", err)
	}
	var file monsterFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse monster data: %w", err)
	}

	p := &Provider{monsters: make(map[string]Monster, len(file.Data)), log: log}
	for _, m := range file.Data {
		p.monsters[m.ID] = m
	}
	log.Info("monster data loaded", zap.Int("count", len(p.monsters)))
	return p, nil
}

// MonsterByID returns the monster with the given id.
func (p *Provider) MonsterByID(id string) (Monster, bool) {
	m, ok := p.monsters[id]
	return m, ok
}

// MonsterCount reports the table size.
func (p *Provider) MonsterCount() int {
	return len(p.monsters)
}
