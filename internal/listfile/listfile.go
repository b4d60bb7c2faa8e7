// Package listfile reads config files that hold a single named list, such as
// the targets and publishers files. A file is YAML or JSON with the list
// under its key, or a bare JSON array of entries.
package listfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/webrequest/pkg/jsonarray"
)

// ErrUnrecognized reports content that is neither YAML nor JSON.
var ErrUnrecognized = errors.New("format not recognized (expected YAML or JSON)")

// Read loads the entries stored under key in the file at path.
func Read[T any](path, key string) ([]T, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%s file path is empty", key)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s file: %w", key, err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s file: %w", key, err)
	}
	return Parse[T](raw, filepath.Ext(path), key)
}

// Parse decodes data by extension; an empty extension tries JSON, then YAML.
// A missing key yields no entries.
func Parse[T any](data []byte, ext, key string) ([]T, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		list, err := jsonarray.DecodeArray[T](string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("decode %s array: %w", key, err)
		}
		return list, nil
	}

	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		return parseYAML[T](data, key)
	case ".json":
		return parseJSON[T](data, key)
	case "":
		if list, err := parseJSON[T](data, key); err == nil {
			return list, nil
		}
		if list, err := parseYAML[T](data, key); err == nil {
			return list, nil
		}
	}
	return nil, fmt.Errorf("%s file %w", key, ErrUnrecognized)
}

func parseJSON[T any](data []byte, key string) ([]T, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json %s: %w", key, err)
	}
	raw, ok := doc[key]
	if !ok {
		return nil, nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode json %s: %w", key, err)
	}
	return list, nil
}

func parseYAML[T any](data []byte, key string) ([]T, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml %s: %w", key, err)
	}
	node, ok := doc[key]
	if !ok {
		return nil, nil
	}
	var list []T
	if err := node.Decode(&list); err != nil {
		return nil, fmt.Errorf("decode yaml %s: %w", key, err)
	}
	return list, nil
}
