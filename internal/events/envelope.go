// Package events carries the provider lifecycle-event envelope, the Kafka
// consumer that feeds the reconciler and the dead-letter producer.
package events

import (
	"encoding/json"
	"fmt"
)

// Provider lifecycle event types.
const (
	TypeAssetCreated = "video.asset.created"
	TypeAssetReady   = "video.asset.ready"
	TypeAssetErrored = "video.asset.errored"
	TypeAssetDeleted = "video.asset.deleted"
)

// Envelope is the outer shape of every provider event.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// AssetEvent is the payload of asset lifecycle events. Passthrough carries
// our asset id, set when the transcoding job was created.
type AssetEvent struct {
	ProviderAssetID string        `json:"id"`
	Passthrough     string        `json:"passthrough"`
	Status          string        `json:"status"`
	Duration        float64       `json:"duration"`
	AspectRatio     string        `json:"aspect_ratio"`
	PlaybackIDs     []PlaybackID  `json:"playback_ids"`
	Errors          *ProviderErrs `json:"errors"`
}

type PlaybackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

type ProviderErrs struct {
	Type     string   `json:"type"`
	Messages []string `json:"messages"`
}

// Message returns a single human-readable error string.
func (e *ProviderErrs) Message() string {
	if e == nil {
		return "provider reported an unspecified error"
	}
	msg := e.Type
	for _, m := range e.Messages {
		if msg != "" {
			msg += ": "
		}
		msg += m
	}
	if msg == "" {
		return "provider reported an unspecified error"
	}
	return msg
}

// Parse decodes an envelope. A structurally invalid envelope (bad JSON,
// missing type, missing payload) is unrecoverable: there is nothing to retry.
func Parse(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed event envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("event envelope missing type")
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("event envelope missing payload")
	}
	return &env, nil
}

// ParseAssetEvent decodes the asset payload of a parsed envelope.
func ParseAssetEvent(env *Envelope) (*AssetEvent, error) {
	var ev AssetEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return nil, fmt.Errorf("malformed %s payload: %w", env.Type, err)
	}
	return &ev, nil
}
