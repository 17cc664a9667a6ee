package game

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultWords is the built-in secret word pool.
var DefaultWords = []string{
	"airport", "bakery", "beach", "birthday", "castle", "circus", "cinema",
	"dentist", "desert", "farm", "football", "hospital", "hotel", "igloo",
	"jungle", "kitchen", "library", "lighthouse", "museum", "orchestra",
	"pirate", "pizza", "police station", "restaurant", "school", "space station",
	"submarine", "supermarket", "swimming pool", "theater", "train", "volcano",
	"wedding", "zoo",
}

type wordFile struct {
	Words []string `yaml:"words"`
}

// LoadWords reads a word pool from a YAML (or JSON) file. The file holds
// either a plain list of words or a mapping with a "words" list.
func LoadWords(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read word pool: %w", err)
	}
	return ParseWords(b)
}

func ParseWords(b []byte) ([]string, error) {
	var list []string
	if err := yaml.Unmarshal(b, &list); err != nil {
		var wf wordFile
		if err2 := yaml.Unmarshal(b, &wf); err2 != nil {
			return nil, fmt.Errorf("parse word pool: %w", err2)
		}
		list = wf.Words
	}
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, w := range list {
		w = strings.TrimSpace(w)
		if w == "" || seen[strings.ToLower(w)] {
			continue
		}
		seen[strings.ToLower(w)] = true
		out = append(out, w)
	}
	if len(out) == 0 {
		return nil, ErrEmptyWordPool
	}
	return out, nil
}
