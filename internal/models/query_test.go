package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validatable interface {
	Validate() error
}

func checkValidate(t *testing.T, req validatable, wantErr bool) {
	t.Helper()
	if wantErr {
		assert.Error(t, req.Validate())
	} else {
		assert.NoError(t, req.Validate())
	}
}

func TestNeighborsRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *NeighborsRequest
		wantErr bool
	}{
		{"empty", &NeighborsRequest{}, true},
		{"blank word", &NeighborsRequest{Word: "  "}, true},
		{"word", &NeighborsRequest{Word: "king", N: 5}, false},
		{"vector", &NeighborsRequest{Vector: []float32{1, 2}}, false},
		{"both", &NeighborsRequest{Word: "king", Vector: []float32{1}}, true},
		{"negative n", &NeighborsRequest{Word: "king", N: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidate(t, tt.req, tt.wantErr)
		})
	}
}

func TestWithinRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *WithinRequest
		wantErr bool
	}{
		{"empty word", &WithinRequest{Threshold: 0.3}, true},
		{"valid", &WithinRequest{Word: "cat", Threshold: 0.3}, false},
		{"zero threshold", &WithinRequest{Word: "cat"}, false},
		{"negative threshold", &WithinRequest{Word: "cat", Threshold: -0.1}, true},
		{"threshold above 2", &WithinRequest{Word: "cat", Threshold: 2.5}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidate(t, tt.req, tt.wantErr)
		})
	}
}

func TestPairRequest(t *testing.T) {
	req := &PairRequest{First: " king ", Second: "man"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "king", req.First, "first should be trimmed")
	assert.Equal(t, float32(1), req.FactorOr(1))

	f := float32(0.25)
	req.Factor = &f
	assert.Equal(t, float32(0.25), req.FactorOr(1))

	assert.Error(t, (&PairRequest{First: "king"}).Validate(), "second is missing")
}

func TestQueryRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *QueryRequest
		wantErr bool
	}{
		{"empty", &QueryRequest{}, true},
		{"expression", &QueryRequest{Expression: "like(a, b)"}, false},
		{"tree", &QueryRequest{Tree: &TreeNode{Word: "a"}}, false},
		{"both", &QueryRequest{Expression: "a", Tree: &TreeNode{Word: "a"}}, true},
		{"negative n", &QueryRequest{Expression: "a", N: -4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidate(t, tt.req, tt.wantErr)
		})
	}
}

func TestClusterRequest(t *testing.T) {
	half, over := 0.5, 1.5
	tests := []struct {
		name    string
		req     *ClusterRequest
		wantErr bool
	}{
		{"empty", &ClusterRequest{}, true},
		{"word", &ClusterRequest{Word: "bank"}, false},
		{"negative n", &ClusterRequest{Word: "bank", N: -1}, true},
		{"cutoff", &ClusterRequest{Word: "bank", Cutoff: &half}, false},
		{"cutoff above 1", &ClusterRequest{Word: "bank", Cutoff: &over}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidate(t, tt.req, tt.wantErr)
		})
	}

	req := &ClusterRequest{Word: " bank "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "bank", req.Word)
	assert.Equal(t, DefaultClusterSize, req.SizeOr(DefaultClusterSize))
	assert.Equal(t, DefaultClusterCutoff, req.CutoffOr(DefaultClusterCutoff))
	assert.Equal(t, float32(1), req.FactorOr(1))

	f := float32(0.5)
	req.N, req.Cutoff, req.Factor = 7, &half, &f
	assert.Equal(t, 7, req.SizeOr(DefaultClusterSize))
	assert.Equal(t, 0.5, req.CutoffOr(DefaultClusterCutoff))
	assert.Equal(t, float32(0.5), req.FactorOr(1))
}

func TestGraphRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *GraphRequest
		wantErr bool
	}{
		{"defaults", &GraphRequest{}, false},
		{"ego", &GraphRequest{Ego: "music"}, false},
		{"ego ball", &GraphRequest{Ego: "music", Hops: 2}, false},
		{"hops without ego", &GraphRequest{Hops: 1}, true},
		{"negative words", &GraphRequest{Words: -1}, true},
		{"distance limit above 2", &GraphRequest{DistanceLimit: 3}, true},
		{"negative scaling", &GraphRequest{WeightScaling: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidate(t, tt.req, tt.wantErr)
		})
	}
}

func TestTreeNode_Build(t *testing.T) {
	body := `{
		"op": "unlike",
		"left": {"op": "like", "left": {"word": "mouse"}, "right": {"word": "keyboard"}, "factor": 0.5},
		"right": {"word": "screen"}
	}`
	var node TreeNode
	require.NoError(t, json.Unmarshal([]byte(body), &node))
	tree, err := node.Build(1)
	require.NoError(t, err)
	assert.Equal(t, `unlike(like("mouse", "keyboard", 0.5), "screen")`, tree.String())
}

func TestTreeNode_BuildErrors(t *testing.T) {
	tests := []struct {
		name string
		node *TreeNode
	}{
		{"empty node", &TreeNode{}},
		{"unknown op", &TreeNode{Op: "near", Left: &TreeNode{Word: "a"}, Right: &TreeNode{Word: "b"}}},
		{"missing right", &TreeNode{Op: "like", Left: &TreeNode{Word: "a"}}},
		{"word with children", &TreeNode{Word: "a", Left: &TreeNode{Word: "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.node.Build(1)
			assert.Error(t, err)
		})
	}
}
