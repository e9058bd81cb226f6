// Package settings persists the single JSON settings document shared by every
// sdcli command. Keys are addressed with dot notation ("WIDGETS.model_num").
package settings

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Top-level namespaces every settings document carries.
const (
	SectionEnvironment = "ENVIRONMENT"
	SectionWebUI       = "WEBUI"
	SectionWidgets     = "WIDGETS"
)

type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the whole settings document. A missing, empty or corrupt file
// degrades to an empty document so one bad write never blocks later commands.
func (s *Store) Load() map[string]interface{} {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("could not read settings file", "path", s.path, "error", err)
		}
		return map[string]interface{}{}
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]interface{}{}
	}
	doc := map[string]interface{}{}
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("settings file is not valid JSON, starting empty", "path", s.path, "error", err)
		return map[string]interface{}{}
	}
	return doc
}

// Write replaces the entire file content, creating parent directories as needed.
func (s *Store) Write(doc map[string]interface{}) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Read walks the dotted key through nested objects, returning def the moment a
// segment is missing or the container is not an object.
func (s *Store) Read(key string, def interface{}) interface{} {
	return navigate(s.Load(), key, def)
}

// ReadString is Read with a string assertion; non-string values fall back to def.
func (s *Store) ReadString(key string, def string) string {
	v := s.Read(key, def)
	if str, ok := v.(string); ok {
		return str
	}
	return def
}

// Save sets one dotted key without disturbing siblings, auto-creating
// intermediate objects.
func (s *Store) Save(key string, value interface{}) error {
	doc := s.Load()
	setNested(doc, key, value)
	return s.Write(doc)
}

func (s *Store) KeyExists(key string) bool {
	marker := struct{}{}
	return navigate(s.Load(), key, marker) != interface{}(marker)
}

// EnsureStructure guarantees the three top-level namespaces exist.
func (s *Store) EnsureStructure() error {
	doc := s.Load()
	changed := false
	for _, section := range []string{SectionEnvironment, SectionWebUI, SectionWidgets} {
		if _, ok := doc[section].(map[string]interface{}); !ok {
			doc[section] = map[string]interface{}{}
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.Write(doc)
}

// UpdateSection merges data into one top-level section, preserving keys the
// caller did not name.
func (s *Store) UpdateSection(section string, data map[string]interface{}) error {
	doc := s.Load()
	existing, ok := doc[section].(map[string]interface{})
	if !ok {
		existing = map[string]interface{}{}
	}
	for k, v := range data {
		existing[k] = v
	}
	doc[section] = existing
	return s.Write(doc)
}

func navigate(doc map[string]interface{}, key string, def interface{}) interface{} {
	if key == "" {
		return doc
	}
	var current interface{} = doc
	for _, segment := range strings.Split(key, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return def
		}
		current, ok = obj[segment]
		if !ok {
			return def
		}
	}
	return current
}

func setNested(doc map[string]interface{}, key string, value interface{}) {
	if key == "" {
		return
	}
	segments := strings.Split(key, ".")
	current := doc
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}
