package dispatch

import (
	"context"
	"encoding/json"
	"time"
)

// WarmupDelay ensures instances overlap to create true concurrency.
const WarmupDelay = 75 * time.Millisecond

// WarmupResponse is the response returned by warmup operations.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// IsWarmupEvent checks if the event is a warmup event.
func IsWarmupEvent(event json.RawMessage) (*WarmupEvent, bool) {
	var eventMap map[string]any
	if err := json.Unmarshal(event, &eventMap); err != nil {
		return nil, false
	}

	source, ok := eventMap["source"].(string)
	if !ok || source != WarmupSource {
		return nil, false
	}

	warmup := &WarmupEvent{Source: source}
	if concurrency, ok := eventMap["concurrency"].(float64); ok {
		warmup.Concurrency = int(concurrency)
	}
	return warmup, true
}

// Fanouter invokes the function several times at once.
type Fanouter interface {
	Fanout(ctx context.Context, payload any, count int) error
}

// Warm keeps warmup.Concurrency extra instances busy alongside this one.
// A nil invoker only warms the current instance.
func Warm(ctx context.Context, invoker Fanouter, warmup *WarmupEvent) WarmupResponse {
	instancesWarmed := 1

	if warmup.Concurrency > 0 && invoker != nil {
		// concurrency 0 in the children prevents recursive fan-out
		child := WarmupEvent{Source: WarmupSource}
		if err := invoker.Fanout(ctx, child, warmup.Concurrency); err == nil {
			instancesWarmed += warmup.Concurrency
		}
	}

	time.Sleep(WarmupDelay)

	return WarmupResponse{Status: "warm", InstancesWarmed: instancesWarmed}
}
