package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Explain returns the effective value at a dotted YAML path such as
// "border.width" or "keys.3.key", and where it came from. List elements
// are addressed by index.
func Explain(res *LoadResult, path string) (any, Source, error) {
	if res == nil || res.Config == nil {
		return nil, Source{}, fmt.Errorf("no config loaded")
	}
	if path == "" {
		return nil, Source{}, fmt.Errorf("path is empty")
	}

	var doc yaml.Node
	if err := doc.Encode(res.Config); err != nil {
		return nil, Source{}, err
	}
	node, err := lookupNode(&doc, path)
	if err != nil {
		return nil, Source{}, err
	}
	var value any
	if err := node.Decode(&value); err != nil {
		return nil, Source{}, err
	}

	if src, ok := res.Sources[path]; ok {
		return value, src, nil
	}
	return value, Source{Kind: SourceDefault}, nil
}

func lookupNode(node *yaml.Node, path string) (*yaml.Node, error) {
	for _, part := range strings.Split(path, ".") {
		switch node.Kind {
		case yaml.MappingNode:
			var next *yaml.Node
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == part {
					next = node.Content[i+1]
					break
				}
			}
			if next == nil {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			node = next
		case yaml.SequenceNode:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node.Content) {
				return nil, fmt.Errorf("unknown path: %s", path)
			}
			node = node.Content[i]
		default:
			return nil, fmt.Errorf("unknown path: %s", path)
		}
	}
	return node, nil
}
