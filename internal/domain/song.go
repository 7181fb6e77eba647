package domain

import (
	"regexp"
	"strings"
)

type Song struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Categories string `json:"categories"`
}

type SongCard struct {
	Title      string   `json:"title"`
	Categories string   `json:"categories"`
	Lines      []string `json:"lines"`
}

type SearchResult struct {
	Term    string     `json:"term"`
	Cards   []SongCard `json:"cards"`
	Message string     `json:"message,omitempty"`
	Failed  bool       `json:"failed"`
}

var lineSeparator = regexp.MustCompile(`;\s*`)

// SplitLines breaks semicolon-delimited song content into display lines.
func SplitLines(content string) []string {
	parts := lineSeparator.Split(content, -1)
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		lines = append(lines, p)
	}
	return lines
}

func (s Song) Card() SongCard {
	return SongCard{
		Title:      s.Title,
		Categories: s.Categories,
		Lines:      SplitLines(s.Content),
	}
}
