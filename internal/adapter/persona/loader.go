// Package persona loads tutor personalities, JSON prompt templates kept
// one per file under the personalities directory.
package persona

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

// Loader reads <dir>/<name>.json. The file holds either an object with
// a "template" field or a bare JSON string.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) Load(personality string) (string, error) {
	if personality == "" || strings.ContainsAny(personality, `/\`) {
		return "", fmt.Errorf("invalid personality name %q", personality)
	}
	path := filepath.Join(l.dir, personality+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %q not found in %s", domain.ErrPersonalityNotFound, personality, l.dir)
		}
		return "", err
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("invalid personality file %s: %w", path, err)
	}

	var template string
	switch v := raw.(type) {
	case map[string]any:
		template, _ = v["template"].(string)
	case string:
		template = v
	}
	if strings.TrimSpace(template) == "" {
		return "", fmt.Errorf("empty template in %s", path)
	}
	return template, nil
}

// Available lists the personality names found in the directory.
func (l *Loader) Available() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.dir, "*.json"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, strings.TrimSuffix(filepath.Base(m), ".json"))
	}
	return names, nil
}

// Render fills the {contexto} and {pergunta} placeholders. Doubled
// braces render as literal braces.
func Render(template, context, question string) string {
	r := strings.NewReplacer(
		"{{", "{",
		"}}", "}",
		"{contexto}", context,
		"{pergunta}", question,
	)
	return strings.TrimSpace(r.Replace(template))
}

// FormatContext lists passages as "- text" items separated by blank lines.
func FormatContext(passages []string) string {
	items := make([]string, len(passages))
	for i, p := range passages {
		items[i] = "- " + p
	}
	return strings.Join(items, "\n\n")
}
