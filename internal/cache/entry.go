package cache

import (
	"encoding/json"
	"time"
)

// envelope is the wire form every tier stores. The value is kept as raw
// JSON so reads can defer decoding to the caller's target type, and the
// expiry metadata travels with the payload so every tier can be judged by
// the same clock.
type envelope struct {
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// expired reports whether the entry is stale at the given instant. An entry
// is never a hit once now reaches its expiry.
func (e *envelope) expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

func newEnvelope(value interface{}, now time.Time, ttl time.Duration) (*envelope, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return &envelope{
		Value:     raw,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func (e *envelope) encode() ([]byte, error) {
	return json.Marshal(e)
}

func decodeEnvelope(raw []byte) (*envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	return &env, nil
}
