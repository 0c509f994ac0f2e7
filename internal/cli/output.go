// Package cli provides output formatting for the wordspace command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/wordspace/internal/models"
	"github.com/hyperjump/wordspace/internal/storage"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact prints one word per line with its distance, tab separated.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputCompact, OutputJSON:
		return OutputFormat(s), nil
	case "":
		return OutputText, nil
	}
	return "", fmt.Errorf("unknown output format %q; use text, compact, or json", s)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResults writes ranked words to w in the given format.
func WriteResults(w io.Writer, response *models.QueryResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, r := range response.Results {
			fmt.Fprintf(w, "%s\t%.6f\n", r.Word, r.Distance)
		}
		return nil
	default:
		writeResultsText(w, response)
		return nil
	}
}

func writeResultsText(w io.Writer, response *models.QueryResponse) {
	fmt.Fprintf(w, "\n%s: %d results in %dms\n\n", response.Query, response.Total, response.QueryTime)
	if len(response.Results) == 0 {
		fmt.Fprintln(w, "  (no results)")
		return
	}
	width := 4
	for _, r := range response.Results {
		width = max(width, len(r.Word))
	}
	width = min(width, 40)
	for i, r := range response.Results {
		fmt.Fprintf(w, "%4d. %-*s  %.4f\n", i+1, width, Truncate(r.Word, 40), r.Distance)
	}
}

// WriteDistance writes the distance between two words.
func WriteDistance(w io.Writer, d *models.DistanceResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, d)
	case OutputCompact:
		fmt.Fprintf(w, "%.6f\n", d.Distance)
	default:
		fmt.Fprintf(w, "distance(%s, %s) = %.4f\n", d.First, d.Second, d.Distance)
	}
	return nil
}

// WriteWord writes a resolved word and its vector.
func WriteWord(w io.Writer, info *models.WordInfo, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, info)
	case OutputCompact:
		parts := make([]string, 0, len(info.Vector)+1)
		parts = append(parts, info.Word)
		for _, c := range info.Vector {
			parts = append(parts, fmt.Sprintf("%g", c))
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
	default:
		if info.Exact {
			fmt.Fprintf(w, "word:      %s\n", info.Word)
		} else {
			fmt.Fprintf(w, "word:      %s (resolved from %q)\n", info.Word, info.Query)
		}
		fmt.Fprintf(w, "dimension: %d\n", len(info.Vector))
		fmt.Fprintf(w, "norm:      %.4f\n", info.Norm)
		fmt.Fprintf(w, "vector:    %s\n", Truncate(fmt.Sprint(info.Vector), 120))
	}
	return nil
}

// WriteSuggestions writes vocabulary suggestions.
func WriteSuggestions(w io.Writer, resp *models.SuggestResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	for _, s := range resp.Suggestions {
		fmt.Fprintln(w, s)
	}
	return nil
}

// WriteStatus writes the state of a running server.
func WriteStatus(w io.Writer, st *models.SpaceStatus, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, st)
	}
	fmt.Fprintf(w, "loaded:           %t\n", st.Loaded)
	if st.Loaded {
		fmt.Fprintf(w, "words:            %d\n", st.Words)
		fmt.Fprintf(w, "dimension:        %d\n", st.Dimension)
		fmt.Fprintf(w, "source:           %s\n", st.Source)
		fmt.Fprintf(w, "loaded_at:        %s\n", st.LoadedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "vocabulary_index: %t\n", st.VocabularyIndex)
	if st.SnapshotBytes > 0 {
		fmt.Fprintf(w, "snapshot_bytes:   %d\n", st.SnapshotBytes)
	}
	return nil
}

// WriteSnapshotInfo writes the metadata of a stored snapshot.
func WriteSnapshotInfo(w io.Writer, path string, info *storage.SnapshotInfo, size int64, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			Path string `json:"path"`
			*storage.SnapshotInfo
			SnapshotBytes int64 `json:"snapshot_bytes"`
		}{path, info, size})
	}
	fmt.Fprintf(w, "snapshot:         %s\n", path)
	fmt.Fprintf(w, "words:            %d\n", info.Words)
	fmt.Fprintf(w, "dimension:        %d\n", info.Dimension)
	fmt.Fprintf(w, "source:           %s\n", info.Source)
	fmt.Fprintf(w, "created_at:       %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "snapshot_bytes:   %d\n", size)
	return nil
}

// ClusterView selects the parts of a cluster result printed as text.
type ClusterView struct {
	Lists            bool
	Shared           bool
	Apart            bool
	SuppressClusters bool
	Members          bool
}

// WriteCluster writes a cluster result. Compact output lists the clustered
// words one per line.
func WriteCluster(w io.Writer, res *models.ClusterResponse, view ClusterView, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, res)
	case OutputCompact:
		for _, m := range res.Members {
			fmt.Fprintln(w, m)
		}
		return nil
	}

	for _, g := range res.Groups {
		if view.Lists {
			words := make([]string, len(g.Members))
			for i, m := range g.Members {
				words[i] = m.Word
			}
			label := g.Word
			if g.Word != res.Target {
				label = fmt.Sprintf("like(%s, %s)", res.Target, g.Word)
			}
			fmt.Fprintf(w, "%s: %s\n", label, strings.Join(words, " "))
		}
		if view.Shared {
			parts := make([]string, len(g.Shared))
			for i, sc := range g.Shared {
				parts[i] = fmt.Sprintf("%s %d", sc.Word, sc.Count)
			}
			fmt.Fprintf(w, "%s shares: %s\n", g.Word, strings.Join(parts, ", "))
		}
		if !view.SuppressClusters && len(g.ClustersWith) > 0 {
			fmt.Fprintf(w, "%s clusters with %s\n", g.Word, strings.Join(g.ClustersWith, ", "))
		}
		if view.Apart && len(g.Apart) > 0 {
			fmt.Fprintf(w, "%s does not cluster with %s\n", g.Word, strings.Join(g.Apart, ", "))
		}
	}
	if view.Members {
		fmt.Fprintf(w, "cluster: %s\n", strings.Join(res.Members, " "))
	}
	return nil
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
