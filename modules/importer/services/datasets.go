package services

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/schedule.yaml data/projects.yaml
var dataFS embed.FS

type scheduleTask struct {
	Task  string `yaml:"task"`
	Code  string `yaml:"code"`
	Month int    `yaml:"month"`
	Start int    `yaml:"start"`
	End   int    `yaml:"end"`
}

type budgetFile struct {
	Pattern string `yaml:"pattern"`
	Code    string `yaml:"code"`
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	Zip     string `yaml:"zip"`
	Type    string `yaml:"type"`
}

type projectKeyword struct {
	Match string `yaml:"match"`
	Code  string `yaml:"code"`
}

type projectCatalog struct {
	BudgetFiles []budgetFile     `yaml:"budget_files"`
	Keywords    []projectKeyword `yaml:"keywords"`
}

func decodeEmbedded(name string, out any) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// The embedded files are part of the binary; a decode failure is a build defect.
var (
	catalog = sync.OnceValue(func() *projectCatalog {
		c := &projectCatalog{}
		if err := decodeEmbedded("data/projects.yaml", c); err != nil {
			panic(err)
		}
		return c
	})
	scheduleTasks = sync.OnceValue(func() []scheduleTask {
		var doc struct {
			Tasks []scheduleTask `yaml:"tasks"`
		}
		if err := decodeEmbedded("data/schedule.yaml", &doc); err != nil {
			panic(err)
		}
		return doc.Tasks
	})
)
