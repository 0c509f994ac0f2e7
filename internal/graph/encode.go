package graph

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hyperjump/wordspace/internal/loader"
)

// Format names a graph file format.
type Format string

const (
	FormatAuto Format = "auto"
	FormatGEXF Format = "gexf"
	FormatJSON Format = "json"
)

// ParseFormat parses a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatGEXF, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown graph format %q", s)
	}
}

// DetectFormat picks a format from the file extension, ignoring a
// compression suffix. Anything but .json is written as GEXF.
func DetectFormat(path string) Format {
	base, _ := loader.SplitCompression(path)
	if strings.EqualFold(filepath.Ext(base), ".json") {
		return FormatJSON
	}
	return FormatGEXF
}

type gexfDoc struct {
	XMLName xml.Name  `xml:"gexf"`
	XMLNS   string    `xml:"xmlns,attr"`
	Viz     string    `xml:"xmlns:viz,attr"`
	Version string    `xml:"version,attr"`
	Graph   gexfGraph `xml:"graph"`
}

type gexfGraph struct {
	Mode       string         `xml:"mode,attr"`
	EdgeType   string         `xml:"defaultedgetype,attr"`
	Attributes gexfAttributes `xml:"attributes"`
	Nodes      []gexfNode     `xml:"nodes>node"`
	Edges      []gexfEdge     `xml:"edges>edge"`
}

type gexfAttributes struct {
	Class      string          `xml:"class,attr"`
	Attributes []gexfAttribute `xml:"attribute"`
}

type gexfAttribute struct {
	ID    string `xml:"id,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

type gexfNode struct {
	ID     string         `xml:"id,attr"`
	Label  string         `xml:"label,attr"`
	Values []gexfAttValue `xml:"attvalues>attvalue"`
	Size   gexfSize       `xml:"viz:size"`
}

type gexfAttValue struct {
	For   string `xml:"for,attr"`
	Value string `xml:"value,attr"`
}

type gexfSize struct {
	Value float64 `xml:"value,attr"`
}

type gexfEdge struct {
	ID     string  `xml:"id,attr"`
	Source string  `xml:"source,attr"`
	Target string  `xml:"target,attr"`
	Weight float64 `xml:"weight,attr"`
}

const freqRankAttr = "freqrank"

func toGEXF(g *Graph) gexfDoc {
	doc := gexfDoc{
		XMLNS:   "http://www.gexf.net/1.3",
		Viz:     "http://www.gexf.net/1.3/viz",
		Version: "1.3",
		Graph: gexfGraph{
			Mode:     "static",
			EdgeType: "undirected",
			Attributes: gexfAttributes{
				Class: "node",
				Attributes: []gexfAttribute{
					{ID: freqRankAttr, Title: "Frequency rank", Type: "integer"},
				},
			},
			Nodes: make([]gexfNode, 0, len(g.Nodes)),
			Edges: make([]gexfEdge, 0, len(g.Edges)),
		},
	}
	for _, n := range g.Nodes {
		doc.Graph.Nodes = append(doc.Graph.Nodes, gexfNode{
			ID:     strconv.Itoa(n.ID),
			Label:  n.Label,
			Values: []gexfAttValue{{For: freqRankAttr, Value: strconv.Itoa(n.FreqRank)}},
			Size:   gexfSize{Value: n.Size},
		})
	}
	for i, e := range g.Edges {
		doc.Graph.Edges = append(doc.Graph.Edges, gexfEdge{
			ID:     strconv.Itoa(i),
			Source: strconv.Itoa(e.Source),
			Target: strconv.Itoa(e.Target),
			Weight: e.Weight,
		})
	}
	return doc
}

// Encode writes g to w.
func Encode(w io.Writer, g *Graph, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	case FormatGEXF, FormatAuto, "":
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(toGEXF(g)); err != nil {
			return fmt.Errorf("failed to encode gexf: %w", err)
		}
		if err := enc.Flush(); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n")
		return err
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}
}

// WriteFile writes g to path, compressing it when the path ends in a
// compression suffix.
func WriteFile(path string, g *Graph, format Format) (err error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(path)
	}
	_, codec := loader.SplitCompression(path)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w, err := loader.Compress(f, codec)
	if err != nil {
		return err
	}
	if err := Encode(w, g, format); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
