// Package agent holds the A2A agent card served at /.well-known/agent.json.
package agent

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed agent.json
var rawCard []byte

// AgentCardData is the compacted card, populated by LoadAgentCard.
var AgentCardData []byte

// AgentCard is the subset of the card the service checks on load.
type AgentCard struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Version string `json:"version"`
	Skills  []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"skills"`
}

var (
	loadOnce sync.Once
	loadErr  error
)

// LoadAgentCard validates the embedded card and fills AgentCardData. It is
// safe to call repeatedly.
func LoadAgentCard() error {
	loadOnce.Do(func() {
		var card AgentCard
		if err := json.Unmarshal(rawCard, &card); err != nil {
			loadErr = fmt.Errorf("parse agent card: %w", err)
			return
		}
		if card.Name == "" || card.URL == "" || len(card.Skills) == 0 {
			loadErr = fmt.Errorf("agent card is missing name, url or skills")
			return
		}

		var buf bytes.Buffer
		if err := json.Compact(&buf, rawCard); err != nil {
			loadErr = fmt.Errorf("compact agent card: %w", err)
			return
		}
		AgentCardData = buf.Bytes()
	})
	return loadErr
}
