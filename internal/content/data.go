package content

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
)

// DataDir is the directory under the input directory holding global data files.
const DataDir = "_data"

var dataExts = []string{".yaml", ".yml", ".json"}

// LoadGlobalData reads every data file in <inputDir>/_data. Each file becomes
// a global keyed by its file stem. A missing _data directory yields no data.
func LoadGlobalData(inputDir string) (map[string]any, error) {
	dir := filepath.Join(inputDir, DataDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, ferrors.FileSystemError("read global data directory").
			WithContext("path", dir).
			WithCause(err).
			Build()
	}

	globals := make(map[string]any, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !slices.Contains(dataExts, ext) {
			continue
		}
		key := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if _, dup := globals[key]; dup {
			return nil, ferrors.ValidationError("duplicate global data key").
				WithContext("key", key).
				WithContext("path", filepath.Join(dir, e.Name())).
				Build()
		}
		value, err := readDataFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		globals[key] = value
	}
	return globals, nil
}

func readDataFile(p string) (any, error) {
	raw, err := os.ReadFile(p)
	if err != nil {
		return nil, ferrors.FileSystemError("read data file").
			WithContext("path", p).
			WithCause(err).
			Build()
	}
	var value any
	switch strings.ToLower(filepath.Ext(p)) {
	case ".json":
		err = json.Unmarshal(raw, &value)
	default:
		err = yaml.Unmarshal(raw, &value)
	}
	if err != nil {
		return nil, ferrors.ValidationError("parse data file").
			WithContext("path", p).
			WithCause(err).
			Build()
	}
	return value, nil
}

// dirDataCache resolves directory data files (<dir>/<dir>.data.yaml) and
// remembers them for the rest of the walk.
type dirDataCache struct {
	root  string
	cache map[string]map[string]any
}

func newDirDataCache(root string) *dirDataCache {
	return &dirDataCache{root: root, cache: map[string]map[string]any{}}
}

// chain returns the data of relDir and all of its ancestors, root first.
func (c *dirDataCache) chain(relDir string) ([]map[string]any, error) {
	dirs := []string{"."}
	if relDir != "." && relDir != "" {
		parts := strings.Split(relDir, "/")
		for i := range parts {
			dirs = append(dirs, strings.Join(parts[:i+1], "/"))
		}
	}
	out := make([]map[string]any, 0, len(dirs))
	for _, d := range dirs {
		data, err := c.load(d)
		if err != nil {
			return nil, err
		}
		if data != nil {
			out = append(out, data)
		}
	}
	return out, nil
}

func (c *dirDataCache) load(relDir string) (map[string]any, error) {
	if data, ok := c.cache[relDir]; ok {
		return data, nil
	}
	osDir := filepath.Join(c.root, filepath.FromSlash(relDir))
	base := path.Base(relDir)
	if relDir == "." {
		base = filepath.Base(c.root)
	}

	var data map[string]any
	for _, ext := range dataExts {
		p := filepath.Join(osDir, base+".data"+ext)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		value, err := readDataFile(p)
		if err != nil {
			return nil, err
		}
		m, ok := value.(map[string]any)
		if !ok {
			return nil, ferrors.ValidationError("directory data file must contain a mapping").
				WithContext("path", p).
				Build()
		}
		data = m
		break
	}
	c.cache[relDir] = data
	return data, nil
}

// mergeData layers maps left to right; later maps override earlier keys.
// Tags are unioned instead of replaced.
func mergeData(layers ...map[string]any) (map[string]any, []string, error) {
	merged := map[string]any{}
	var tags []string
	for _, layer := range layers {
		if layer == nil {
			continue
		}
		layerTags, err := tagsOf(layer["tags"])
		if err != nil {
			return nil, nil, err
		}
		for _, t := range layerTags {
			if !slices.Contains(tags, t) {
				tags = append(tags, t)
			}
		}
		values := cloneMap(layer)
		delete(values, "tags")
		if err := mergo.Merge(&merged, values, mergo.WithOverride); err != nil {
			return nil, nil, fmt.Errorf("merge data: %w", err)
		}
	}
	if tags != nil {
		merged["tags"] = tags
	}
	return merged, tags, nil
}

// tagsOf accepts a single tag string or a list of tags.
func tagsOf(v any) ([]string, error) {
	switch tv := v.(type) {
	case nil:
		return nil, nil
	case string:
		if s := strings.TrimSpace(tv); s != "" {
			return []string{s}, nil
		}
		return nil, nil
	}
	tags, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	out := tags[:0]
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// cloneMap copies nested maps and slices so merging never writes into cached
// directory data.
func cloneMap(m map[string]any) map[string]any {
	out := maps.Clone(m)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return cloneMap(tv)
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
