// Package discovery asks an LLM endpoint for cafes the map does not
// know about yet. It is strictly best-effort enrichment: every failure
// is returned to the caller to be logged and dropped, and malformed
// model output degrades to "fewer suggestions", never to an error in
// the review path.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Suggestion is one venue proposed by the model, with its estimated
// amenity scores. Estimates seed the map only; they are replaced by
// crowd data as reviews arrive.
type Suggestion struct {
	Name        string             `json:"name"`
	Address     string             `json:"address"`
	Description string             `json:"description"`
	Latitude    float64            `json:"latitude"`
	Longitude   float64            `json:"longitude"`
	Amenities   map[string]float64 `json:"amenities"`
}

type Client struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: defaultTimeout},
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// FetchSuggestions prompts the model for cafes in the given area and
// parses whatever comes back as tolerantly as possible.
func (c *Client) FetchSuggestions(ctx context.Context, area string) ([]Suggestion, error) {
	prompt := fmt.Sprintf(
		"List specialty cafes in %s suited to remote work as a JSON array. "+
			"Each entry: name, address, description, latitude, longitude, and "+
			"amenities with estimated 0-10 scores for wifi, outlet, comfort, "+
			"hygiene, quality, noise, service. JSON only, no commentary.", area)

	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery endpoint returned status %d", resp.StatusCode)
	}

	// The gateway wraps model output in {"text": ...}; a bare body is
	// accepted too.
	text := string(raw)
	var envelope generateResponse
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Text != "" {
		text = envelope.Text
	}

	return ParseSuggestions(text), nil
}

// ParseSuggestions digs a JSON array out of free-form model output.
// Code fences and surrounding prose are stripped, entries that fail to
// decode or lack a name are skipped. It never fails: garbage in, empty
// slice out.
func ParseSuggestions(text string) []Suggestion {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(text[start:end+1]), &entries); err != nil {
		return nil
	}

	var suggestions []Suggestion
	for _, entry := range entries {
		var s Suggestion
		if err := json.Unmarshal(entry, &s); err != nil {
			continue
		}
		if strings.TrimSpace(s.Name) == "" {
			continue
		}
		suggestions = append(suggestions, s)
	}
	return suggestions
}
