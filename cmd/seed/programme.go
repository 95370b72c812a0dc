package main

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultProgramme []byte

// programme is the seed document: agendas keyed by id, each with its events
type programme struct {
	Agendas []seedAgenda `yaml:"agendas"`
}

type seedAgenda struct {
	models.AgendaInput `yaml:",inline"`

	ID     int64               `yaml:"id"`
	Events []models.EventInput `yaml:"events"`
}

// loadProgramme reads path, or the embedded programme when path is empty
func loadProgramme(path string) (*programme, error) {
	data := defaultProgramme
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	return parseProgramme(data)
}

func parseProgramme(data []byte) (*programme, error) {
	var p programme
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse programme: %w", err)
	}

	seen := make(map[int64]bool, len(p.Agendas))
	for i, a := range p.Agendas {
		if a.ID <= 0 {
			return nil, fmt.Errorf("agenda %d: id must be positive", i)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("agenda %d: duplicate id", a.ID)
		}
		seen[a.ID] = true

		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("agenda %d: name is required", a.ID)
		}
		for j, ev := range a.Events {
			if strings.TrimSpace(ev.Name) == "" {
				return nil, fmt.Errorf("agenda %d event %d: name is required", a.ID, j)
			}
		}
	}

	return &p, nil
}
