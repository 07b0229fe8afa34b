// Package api holds clients for external collaborators. The character
// service aggregates base stats plus equipped gear into the combat stat
// block this core consumes as an opaque, trusted snapshot.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pvp-arena/internal/config"
	"pvp-arena/internal/domain"

	"github.com/valyala/fasthttp"
)

type CharacterClient struct {
	baseURL string
	apiKey  string
	client  *fasthttp.Client
}

func NewCharacterClient(cfg *config.Config) *CharacterClient {
	return &CharacterClient{
		baseURL: cfg.CharacterAPIURL,
		apiKey:  cfg.CharacterAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

type combatStatsResponse struct {
	Data domain.CombatantStats `json:"data"`
}

// CombatStats fetches the player's aggregated combat stat block. A 404
// means the player has no eligible character.
func (c *CharacterClient) CombatStats(ctx context.Context, discordID string) (domain.CombatantStats, error) {
	url := fmt.Sprintf("%s/api/v1/characters/%s/combat-stats", c.baseURL, discordID)

	resp, err := doRequest[combatStatsResponse](ctx, c, url)
	if err != nil {
		return domain.CombatantStats{}, err
	}
	return resp.Data, nil
}

func doRequest[T any](ctx context.Context, client *CharacterClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", client.apiKey)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(10 * time.Second)
	}
	if err := client.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("character service request failed: %w", err)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, domain.ErrNotEligible
	default:
		return nil, fmt.Errorf("character service returned status %d", resp.StatusCode())
	}

	var out T
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode character service response: %w", err)
	}
	return &out, nil
}
