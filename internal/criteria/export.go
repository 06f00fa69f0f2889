package criteria

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export writes criteria, ordered by position, in the same shape Validate reads.
func Export(list []Criterion) ([]byte, error) {
	ordered := make([]Criterion, len(list))
	copy(ordered, list)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Position < ordered[j].Position })

	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, c := range ordered {
		entry := &yaml.Node{Kind: yaml.MappingNode}
		appendPair(entry, "type", strNode(string(c.Kind)))
		appendPair(entry, "max_mark", floatNode(c.MaxMark))
		appendPair(entry, "description", strNode(c.Description))
		appendPair(entry, "ta_visible", boolNode(c.TAVisible))
		appendPair(entry, "peer_visible", boolNode(c.PeerVisible))
		appendPair(entry, "bonus", boolNode(c.Bonus))
		if c.Kind == KindRubric {
			levels := &yaml.Node{Kind: yaml.MappingNode}
			for _, l := range c.Levels {
				ln := &yaml.Node{Kind: yaml.MappingNode}
				appendPair(ln, "description", strNode(l.Description))
				appendPair(ln, "mark", floatNode(l.Mark))
				appendPair(levels, l.Name, ln)
			}
			appendPair(entry, "levels", levels)
		}
		appendPair(root, c.Name, entry)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func appendPair(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, strNode(key), v)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

// floatNode always carries a fractional part so 5 is written as 5.0.
func floatNode(f float64) *yaml.Node {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}
}
