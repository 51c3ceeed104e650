package key

import (
	"bytes"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tacogips/doxx/internal/errors"
)

// Derive builds the key document of a project archive by appending the
// caller's replacements to the project.yaml text. When the replacement
// section is a block mapping (or absent) the merge is textual: the archive
// author's metadata is kept as written and the appended values override any
// earlier value with the same name. Flow-style or null sections are
// re-encoded with the same override rule.
func Derive(projectSpec []byte, replacements map[string]string) ([]byte, error) {
	docs, err := decodeDocuments(projectSpec, 3)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrKeyMalformed, "invalid YAML")
	}
	if len(docs) > 2 || (len(docs) > 1 && !isBlockMapping(docs[1])) {
		return rewrite(docs[0], docs[1], replacements)
	}

	var b strings.Builder
	b.Write(projectSpec)
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteByte('\n')
	}

	if !hasReplacementSection(projectSpec, docs) {
		b.WriteString("---\n")
	}

	if len(replacements) > 0 {
		// yaml.v3 writes map keys in sorted order
		out, err := yaml.Marshal(replacements)
		if err != nil {
			return nil, err
		}
		b.Write(out)
	}
	return []byte(b.String()), nil
}

// isBlockMapping reports whether a replacement section can be extended by
// appending lines. An empty section can.
func isBlockMapping(n *yaml.Node) bool {
	if n == nil {
		return true
	}
	return n.Kind == yaml.MappingNode && n.Style&yaml.FlowStyle == 0
}

// rewrite encodes meta followed by repl merged with replacements.
func rewrite(meta, repl *yaml.Node, replacements map[string]string) ([]byte, error) {
	merged := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	switch {
	case isNull(repl):
	case repl.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(repl.Content); i += 2 {
			if _, ok := replacements[repl.Content[i].Value]; ok {
				continue
			}
			merged.Content = append(merged.Content, repl.Content[i], repl.Content[i+1])
		}
	default:
		return nil, errors.New(errors.ErrKeyMalformed, "the replacement section must be a mapping of names to values")
	}

	names := make([]string, 0, len(replacements))
	for name := range replacements {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		merged.Content = append(merged.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: replacements[name]},
		)
	}

	if meta == nil {
		meta = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, err
	}
	if err := enc.Encode(merged); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// hasReplacementSection reports whether spec already opens a second
// document.
func hasReplacementSection(spec []byte, docs []*yaml.Node) bool {
	if len(docs) >= 2 {
		return true
	}
	lines := strings.Split(strings.TrimRight(string(spec), " \t\r\n"), "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	return last == "---" && len(lines) > 1
}
