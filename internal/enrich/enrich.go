// Package enrich writes short descriptions of venues with a language model,
// falling back to a plain location line.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sichef/sichef/internal/analyze"
	"github.com/sichef/sichef/pkg/anthropic"
)

// Item is one venue to describe.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Address string `json:"address,omitempty"`
	Dish    string `json:"dish,omitempty"`
	City    string `json:"city,omitempty"`
}

const systemPrompt = "Sei un assistente che restituisce output concisi e nel formato richiesto."

const promptTemplate = `Scrivi una breve descrizione (1-2 frasi, max 220 caratteri) per ciascun locale, usando nome, città, indirizzo e piatto quando disponibili. Rispondi come JSON con chiave = id e valore = descrizione.
Input:
%s
Output solo JSON:`

// Describer produces one description per item id.
type Describer struct {
	client anthropic.Client
	model  string
}

// New creates a Describer. A nil client always uses the fallback.
func New(client anthropic.Client, model string) *Describer {
	if model == "" {
		model = "claude-haiku-4-5-20251001"
	}
	return &Describer{client: client, model: model}
}

// Describe returns a description for every item id. Model failures of any
// kind degrade to Fallback for all items.
func (d *Describer) Describe(ctx context.Context, items []Item) map[string]string {
	out := make(map[string]string, len(items))
	if len(items) == 0 {
		return out
	}
	if d.client == nil {
		return fallbackAll(items)
	}

	input, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fallbackAll(items)
	}
	temp := 0.3
	resp, err := d.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       d.model,
		MaxTokens:   600,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: fmt.Sprintf(promptTemplate, input)}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("enrich: model call failed", zap.Error(err))
		return fallbackAll(items)
	}
	resp.Usage.LogCost(d.model, "enrich")

	var parsed map[string]any
	if err := json.Unmarshal([]byte(analyze.StripFences(resp.Text())), &parsed); err != nil {
		zap.L().Debug("enrich: model output is not json", zap.Error(err))
		return fallbackAll(items)
	}
	for _, it := range items {
		s, _ := parsed[it.ID].(string)
		out[it.ID] = s
	}
	return out
}

// Fallback is "Luogo: " followed by the non-empty name, address and city
// joined by " · ", or empty when all three are empty.
func Fallback(it Item) string {
	var parts []string
	for _, p := range []string{it.Name, it.Address, it.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "Luogo: " + strings.Join(parts, " · ")
}

func fallbackAll(items []Item) map[string]string {
	out := make(map[string]string, len(items))
	for _, it := range items {
		out[it.ID] = Fallback(it)
	}
	return out
}
