package key

import (
	"bytes"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/tacogips/doxx/internal/debug"
	"github.com/tacogips/doxx/internal/errors"
	"github.com/tacogips/doxx/internal/template/model"
)

// Parse reads and validates the key document at path.
func Parse(fs afero.Fs, path string) (*Key, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrKeyUnreadable, "unable to load the key %s", path).
			WithDetail("path", path)
	}
	return ParseBytes(data, path)
}

// ParseBytes validates a key document read from path. The first YAML
// document is the metadata, the second the replacements; later documents
// are ignored.
func ParseBytes(data []byte, path string) (*Key, error) {
	debug.Debug("[key] Parsing %s (%d bytes)", path, len(data))

	docs, err := decodeDocuments(data, 2)
	if err != nil {
		return nil, malformed(path, "invalid YAML: %v", err)
	}

	var meta, repl *yaml.Node
	if len(docs) > 0 {
		meta = docs[0]
	}
	if len(docs) > 1 {
		repl = docs[1]
	}

	k := &Key{SourcePath: path}
	dir := filepath.Dir(path)

	if isNull(meta) || meta.Kind != yaml.MappingNode {
		return nil, malformed(path, "there is no metadata in the key; include a template, templates or project field")
	}
	if k.Metadata, err = parseMetadata(meta, dir, path); err != nil {
		return nil, err
	}
	if k.Replacements, err = parseReplacements(repl, path); err != nil {
		return nil, err
	}

	k.noReplacements = true
	for _, v := range k.Replacements {
		if v != "" {
			k.noReplacements = false
			break
		}
	}

	debug.Debug("[key] %s: target=%T replacements=%d noReplacements=%t",
		path, k.Metadata.Target, len(k.Replacements), k.noReplacements)
	return k, nil
}

// decodeDocuments returns up to max document roots from data. Later
// documents must still be valid YAML.
func decodeDocuments(data []byte, max int) ([]*yaml.Node, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var docs []*yaml.Node
	for len(docs) < max {
		var doc yaml.Node
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		var root *yaml.Node
		if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
			root = resolveAlias(doc.Content[0])
		}
		docs = append(docs, root)
	}
	// a syntax error at the end of the last wanted document only surfaces
	// on the next Decode
	if len(docs) == max {
		var next yaml.Node
		if err := dec.Decode(&next); err != nil && err != io.EOF {
			return nil, err
		}
	}
	return docs, nil
}

func parseMetadata(n *yaml.Node, dir, path string) (Metadata, error) {
	var m Metadata
	fields := mappingFields(n)

	var present []string
	for _, name := range []string{FieldTemplate, FieldTemplates, FieldProject} {
		if _, ok := fields[name]; ok {
			present = append(present, name)
		}
	}
	switch len(present) {
	case 0:
		return m, malformed(path, "there are no templates specified in the key; include a template, templates or project field")
	case 1:
	default:
		return m, malformed(path, "the %s fields are mutually exclusive; remove all but one", strings.Join(present, ", "))
	}

	switch name := present[0]; name {
	case FieldTemplate, FieldProject:
		v := fields[name]
		if isNull(v) || v.Kind != yaml.ScalarNode || v.Value == "" {
			return m, malformed(path, "the %s field in the key is empty; include a path or URL", name)
		}
		if name == FieldTemplate {
			m.Target = SingleTemplate{Path: resolvePath(dir, v.Value)}
		} else {
			m.Target = ProjectArchive{Source: resolvePath(dir, v.Value)}
		}
	case FieldTemplates:
		v := fields[name]
		if isNull(v) {
			return m, malformed(path, "the templates field in the key is empty")
		}
		if v.Kind != yaml.SequenceNode {
			return m, malformed(path, "the templates field must be a list of paths or URLs")
		}
		if len(v.Content) == 0 {
			return m, malformed(path, "the templates field in the key is empty")
		}
		paths := make([]string, 0, len(v.Content))
		for _, item := range v.Content {
			item = resolveAlias(item)
			if isNull(item) || item.Kind != yaml.ScalarNode || item.Value == "" {
				return m, malformed(path, "the templates field contains an empty path")
			}
			paths = append(paths, resolvePath(dir, item.Value))
		}
		m.Target = MultiTemplate{Paths: paths}
	}

	var err error
	if m.GitHubRepos, err = parseFetches(fields[FieldGitHubRepos], FieldGitHubRepos, dir, path); err != nil {
		return m, err
	}
	if m.TextFiles, err = parseFetches(fields[FieldTextFiles], FieldTextFiles, dir, path); err != nil {
		return m, err
	}
	if m.BinaryFiles, err = parseFetches(fields[FieldBinaryFiles], FieldBinaryFiles, dir, path); err != nil {
		return m, err
	}
	return m, nil
}

// parseFetches reads a local path -> source mapping, sorted by local path.
func parseFetches(n *yaml.Node, field, dir, path string) ([]Fetch, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, malformed(path, "the %s field must map local paths to remote sources", field)
	}

	fields := mappingFields(n)
	fetches := make([]Fetch, 0, len(fields))
	for local, src := range fields {
		if local == "" || isNull(src) || src.Kind != yaml.ScalarNode || src.Value == "" {
			return nil, malformed(path, "the %s field contains an empty entry", field)
		}
		lp := local
		if !filepath.IsAbs(lp) {
			lp = filepath.Join(dir, filepath.FromSlash(lp))
		}
		fetches = append(fetches, Fetch{LocalPath: lp, Source: src.Value})
	}
	sort.Slice(fetches, func(i, j int) bool { return fetches[i].LocalPath < fetches[j].LocalPath })
	return fetches, nil
}

func parseReplacements(n *yaml.Node, path string) (map[string]string, error) {
	values := map[string]string{}
	if isNull(n) {
		return values, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, malformed(path, "the replacement section must be a mapping of names to values")
	}

	for name, v := range mappingFields(n) {
		s, err := scalarText(v)
		if err != nil {
			return nil, malformed(path, "cannot read the value of %q: %v", name, err)
		}
		values[norm.NFC.String(name)] = norm.NFC.String(s)
	}
	return values, nil
}

// scalarText returns the textual form of a replacement value. Scalars keep
// their literal spelling, null becomes the empty string, and collections are
// written as flow-style YAML.
func scalarText(n *yaml.Node) (string, error) {
	if isNull(n) {
		return "", nil
	}
	if n.Kind == yaml.ScalarNode {
		return n.Value, nil
	}

	flow := *n
	flow.Style = yaml.FlowStyle
	out, err := yaml.Marshal(&flow)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// mappingFields returns the key/value pairs of a mapping node. Later
// duplicates win.
func mappingFields(n *yaml.Node) map[string]*yaml.Node {
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields[n.Content[i].Value] = resolveAlias(n.Content[i+1])
	}
	return fields
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// resolvePath anchors relative local paths at the key directory. URLs and
// absolute paths are returned unchanged.
func resolvePath(dir, p string) string {
	if model.IsURL(p) || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, filepath.FromSlash(p))
}

func malformed(path, format string, args ...interface{}) error {
	return errors.Newf(errors.ErrKeyMalformed, "key %s: "+format, append([]interface{}{path}, args...)...).
		WithDetail("path", path)
}
