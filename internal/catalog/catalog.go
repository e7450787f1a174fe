// Package catalog serves the static fruit and disease reference lists.
package catalog

import (
	"embed"
	"encoding/json"
	"fmt"
)

//go:embed data/*.json
var files embed.FS

// List is a reference list in its response shape.
type List struct {
	Total int               `json:"total"`
	Data  []json.RawMessage `json:"data"`
}

func Fruits() (List, error)   { return load("data/fruits.json") }
func Diseases() (List, error) { return load("data/diseases.json") }

func load(name string) (List, error) {
	raw, err := files.ReadFile(name)
	if err != nil {
		return List{}, err
	}
	var data []json.RawMessage
	if err := json.Unmarshal(raw, &data); err != nil {
		return List{}, fmt.Errorf("catalog %s: %w", name, err)
	}
	return List{Total: len(data), Data: data}, nil
}
