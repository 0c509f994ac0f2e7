package models

import (
	"fmt"
	"strings"

	"github.com/hyperjump/wordspace/internal/space"
)

// DefaultClusterSize is the group size used when a cluster request gives none.
const DefaultClusterSize = 20

// DefaultClusterCutoff is the share of a group that must appear in another
// group for the two to cluster.
const DefaultClusterCutoff = 0.5

// ClusterRequest asks which of Word's neighbours it clusters with.
type ClusterRequest struct {
	Word   string   `json:"word"`
	N      int      `json:"n,omitempty"`
	Factor *float32 `json:"factor,omitempty"`
	Cutoff *float64 `json:"cutoff,omitempty"`
}

// Validate ensures the word is set and the cutoff is a share.
func (q *ClusterRequest) Validate() error {
	q.Word = strings.TrimSpace(q.Word)
	if q.Word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if q.N < 0 {
		return fmt.Errorf("n must not be negative")
	}
	if q.Cutoff != nil && (*q.Cutoff < 0 || *q.Cutoff > 1) {
		return fmt.Errorf("cutoff must be between 0 and 1")
	}
	return nil
}

// SizeOr returns the requested group size or def.
func (q *ClusterRequest) SizeOr(def int) int {
	if q.N > 0 {
		return q.N
	}
	return def
}

// FactorOr returns the requested projection factor or def.
func (q *ClusterRequest) FactorOr(def float32) float32 {
	if q.Factor != nil {
		return *q.Factor
	}
	return def
}

// CutoffOr returns the requested cutoff or def.
func (q *ClusterRequest) CutoffOr(def float64) float64 {
	if q.Cutoff != nil {
		return *q.Cutoff
	}
	return def
}

// SharedCount is how many members of a group also appear in the group of Word.
type SharedCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// ClusterGroup is the like list of one neighbour, or the plain neighbour
// list of the target.
type ClusterGroup struct {
	Word         string             `json:"word"`
	Members      []space.ScoredWord `json:"members"`
	Shared       []SharedCount      `json:"shared"`
	ClustersWith []string           `json:"clusters_with"`
	Apart        []string           `json:"apart"`
}

// ClusterResponse is the result of a cluster request. Groups[0] belongs to
// the target. Members lists every group word that clusters with another.
type ClusterResponse struct {
	Target    string         `json:"target"`
	N         int            `json:"n"`
	Factor    float32        `json:"factor"`
	Cutoff    float64        `json:"cutoff"`
	Groups    []ClusterGroup `json:"groups"`
	Members   []string       `json:"members"`
	QueryTime int64          `json:"query_time_ms"`
}

// GraphRequest asks for a neighbourhood graph. Zero fields take defaults.
// With Ego and no Hops the graph is built around Ego alone; with Hops the
// vocabulary graph is built first and the ball of Hops arcs around Ego is
// returned.
type GraphRequest struct {
	Ego           string  `json:"ego,omitempty"`
	Hops          int     `json:"hops,omitempty"`
	Words         int     `json:"words,omitempty"`
	DistanceLimit float32 `json:"distance_limit,omitempty"`
	MinNeighbours int     `json:"min_neighbours,omitempty"`
	MaxNeighbours int     `json:"max_neighbours,omitempty"`
	WeightScaling float64 `json:"weight_scaling,omitempty"`
}

// Validate rejects negative sizes and a hop count without an ego word.
func (q *GraphRequest) Validate() error {
	q.Ego = strings.TrimSpace(q.Ego)
	if q.Hops < 0 || q.Words < 0 || q.MinNeighbours < 0 || q.MaxNeighbours < 0 {
		return fmt.Errorf("sizes must not be negative")
	}
	if q.Hops > 0 && q.Ego == "" {
		return fmt.Errorf("hops needs an ego word")
	}
	if q.DistanceLimit < 0 || q.DistanceLimit > MaxThreshold {
		return fmt.Errorf("distance_limit must be between 0 and %g", MaxThreshold)
	}
	if q.WeightScaling < 0 {
		return fmt.Errorf("weight_scaling must not be negative")
	}
	return nil
}
