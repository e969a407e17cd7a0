// Package prompts holds the enhancement prompt templates. They live in enhance.json, are
// embedded at compile time and parsed once as text/template templates.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"text/template"
)

//go:embed enhance.json
var enhanceJSON []byte

// Key names one template in enhance.json.
type Key string

// Template keys.
const (
	SkillOneWord        Key = "skill-one-word"
	ContentFromScratch  Key = "content-from-scratch"
	StandardEnhancement Key = "standard-enhancement"
	SkillNew            Key = "skill-new"
	SkillExisting       Key = "skill-existing"
)

var (
	loadOnce  sync.Once
	templates map[Key]*template.Template
	loadErr   error
)

func load() (map[Key]*template.Template, error) {
	loadOnce.Do(func() {
		templates, loadErr = parse(enhanceJSON)
	})
	return templates, loadErr
}

// parse decodes a key -> template JSON object. Placeholders without a value are an error at render time.
func parse(data []byte) (map[Key]*template.Template, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}
	out := make(map[Key]*template.Template, len(raw))
	for name, body := range raw {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to parse prompt %q: %w", name, err)
		}
		out[Key(name)] = tmpl
	}
	return out, nil
}

// Render executes the template for key with data.
func Render(key Key, data map[string]string) (string, error) {
	all, err := load()
	if err != nil {
		return "", err
	}
	tmpl, ok := all[key]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", key)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %q: %w", key, err)
	}
	return sb.String(), nil
}

// MustRender is Render for the built-in templates, which are known to exist and to be well formed.
func MustRender(key Key, data map[string]string) string {
	out, err := Render(key, data)
	if err != nil {
		panic(err)
	}
	return out
}

// Keys lists the available template keys in sorted order.
func Keys() ([]Key, error) {
	all, err := load()
	if err != nil {
		return nil, err
	}
	keys := make([]Key, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}
