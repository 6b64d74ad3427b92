package main

import (
	"fmt"
	"os"

	"mlpaint/internal/label"
	"mlpaint/internal/stroke"

	"gopkg.in/yaml.v3"
)

// Script is a recorded labeling session. Each stroke is a list of dabs followed by a
// release.
//
//	strokes:
//	  - - {center: {x: 10, y: 5}, radius: 6, brush: negative}
//	  - - {center: {x: 32, y: 32}, radius: 6, brush: positive}
//	grow: 3
//	commit: positive
type Script struct {
	Strokes [][]stroke.Event `yaml:"strokes"`
	// Grow is the number of rings to grow after the last release.
	Grow int `yaml:"grow"`
	// Commit is the label code to commit the final suggestion as. Empty means no commit.
	Commit string `yaml:"commit"`
}

// LoadScript reads a YAML stroke script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if _, err := s.CommitCode(); err != nil {
		return nil, err
	}
	return &s, nil
}

// CommitCode returns the code to commit as. Unlabeled means the script does not commit.
func (s *Script) CommitCode() (label.Code, error) {
	if s.Commit == "" {
		return label.Unlabeled, nil
	}
	return label.ParseCode(s.Commit)
}
