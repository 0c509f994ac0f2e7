package models

import (
	"fmt"
	"strings"
)

// MaxThreshold is the largest meaningful cosine distance.
const MaxThreshold = 2.0

// NeighborsRequest asks for the words closest to Word, or to Vector when set.
type NeighborsRequest struct {
	Word   string    `json:"word,omitempty"`
	Vector []float32 `json:"vector,omitempty"`
	N      int       `json:"n,omitempty"`
}

// Validate ensures exactly one of word and vector is given.
func (q *NeighborsRequest) Validate() error {
	q.Word = strings.TrimSpace(q.Word)
	if q.Word == "" && len(q.Vector) == 0 {
		return fmt.Errorf("word or vector is required")
	}
	if q.Word != "" && len(q.Vector) > 0 {
		return fmt.Errorf("word and vector are mutually exclusive")
	}
	if q.N < 0 {
		return fmt.Errorf("n must not be negative")
	}
	return nil
}

// WithinRequest asks for every word within Threshold of Word.
type WithinRequest struct {
	Word      string  `json:"word"`
	Threshold float32 `json:"threshold"`
}

// Validate ensures the word is set and the threshold is a cosine distance.
func (q *WithinRequest) Validate() error {
	q.Word = strings.TrimSpace(q.Word)
	if q.Word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if q.Threshold < 0 || q.Threshold > MaxThreshold {
		return fmt.Errorf("threshold must be between 0 and %g", MaxThreshold)
	}
	return nil
}

// PairRequest is a two-word like or unlike query.
type PairRequest struct {
	First  string   `json:"first"`
	Second string   `json:"second"`
	N      int      `json:"n,omitempty"`
	Factor *float32 `json:"factor,omitempty"`
}

// Validate ensures both words are set.
func (q *PairRequest) Validate() error {
	q.First = strings.TrimSpace(q.First)
	q.Second = strings.TrimSpace(q.Second)
	if q.First == "" || q.Second == "" {
		return fmt.Errorf("first and second cannot be empty")
	}
	if q.N < 0 {
		return fmt.Errorf("n must not be negative")
	}
	return nil
}

// FactorOr returns the requested projection factor or def.
func (q *PairRequest) FactorOr(def float32) float32 {
	if q.Factor != nil {
		return *q.Factor
	}
	return def
}

// QueryRequest is a compositional analogy given as an expression such as
// unlike(like(mouse, keyboard), screen) or as a JSON tree.
type QueryRequest struct {
	Expression string    `json:"expression,omitempty"`
	Tree       *TreeNode `json:"tree,omitempty"`
	N          int       `json:"n,omitempty"`
	Factor     *float32  `json:"factor,omitempty"`
}

// Validate ensures exactly one of expression and tree is given.
func (q *QueryRequest) Validate() error {
	q.Expression = strings.TrimSpace(q.Expression)
	if q.Expression == "" && q.Tree == nil {
		return fmt.Errorf("expression or tree is required")
	}
	if q.Expression != "" && q.Tree != nil {
		return fmt.Errorf("expression and tree are mutually exclusive")
	}
	if q.N < 0 {
		return fmt.Errorf("n must not be negative")
	}
	return nil
}

// FactorOr returns the requested default projection factor or def.
func (q *QueryRequest) FactorOr(def float32) float32 {
	if q.Factor != nil {
		return *q.Factor
	}
	return def
}
