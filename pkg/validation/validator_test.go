package validation

import (
	"strings"
	"testing"
)

func TestValidateFrameRequestAcceptsMinimal(t *testing.T) {
	// An empty request is a valid empty graph.
	if err := ValidateFrameRequest(&FrameRequest{}); err != nil {
		t.Errorf("empty request rejected: %v", err)
	}

	req := &FrameRequest{
		NodeIDs:   []string{"A", "B"},
		Adjacency: map[string][]string{"A": {"B"}},
		Strategy:  "force",
		Options:   map[string]float64{"stability": 0.8},
	}
	if err := ValidateFrameRequest(req); err != nil {
		t.Errorf("well-formed request rejected: %v", err)
	}
}

func TestValidateFrameRequestNil(t *testing.T) {
	if err := ValidateFrameRequest(nil); err == nil {
		t.Error("nil request accepted")
	}
}

func TestValidateFrameRequestEmptyNodeID(t *testing.T) {
	req := &FrameRequest{NodeIDs: []string{"A", ""}}
	if err := ValidateFrameRequest(req); err == nil {
		t.Error("empty node id accepted")
	}
}

func TestValidateFrameRequestOversizedNodeID(t *testing.T) {
	req := &FrameRequest{NodeIDs: []string{strings.Repeat("x", MaxNodeIDLength+1)}}
	if err := ValidateFrameRequest(req); err == nil {
		t.Error("oversized node id accepted")
	}
}

func TestValidateFrameRequestTooManyNodes(t *testing.T) {
	old := MaxNodes
	MaxNodes = 4
	defer func() { MaxNodes = old }()

	req := &FrameRequest{NodeIDs: []string{"a", "b", "c", "d", "e"}}
	if err := ValidateFrameRequest(req); err == nil {
		t.Error("node count over the limit accepted")
	}
}

func TestValidateFrameRequestBadAdjacencyKey(t *testing.T) {
	req := &FrameRequest{
		NodeIDs:   []string{"A"},
		Adjacency: map[string][]string{"": {"A"}},
	}
	if err := ValidateFrameRequest(req); err == nil {
		t.Error("empty adjacency key accepted")
	}
}

func TestValidateFrameRequestStrategyPattern(t *testing.T) {
	for _, strategy := range []string{"force", "radial", "my-strategy_2"} {
		req := &FrameRequest{Strategy: strategy}
		if err := ValidateFrameRequest(req); err != nil {
			t.Errorf("strategy %q rejected: %v", strategy, err)
		}
	}
	for _, strategy := range []string{"Force", "../etc", "a b", "-leading"} {
		req := &FrameRequest{Strategy: strategy}
		if err := ValidateFrameRequest(req); err == nil {
			t.Errorf("strategy %q accepted", strategy)
		}
	}
}

func TestValidateSessionID(t *testing.T) {
	for _, id := range []string{"abc", "A-b_3", "550e8400-e29b-41d4-a716-446655440000"} {
		if err := ValidateSessionID(id); err != nil {
			t.Errorf("session id %q rejected: %v", id, err)
		}
	}
	for _, id := range []string{"", "a/b", "a.b", strings.Repeat("x", 129), "sp ace"} {
		if err := ValidateSessionID(id); err == nil {
			t.Errorf("session id %q accepted", id)
		}
	}
}
