package dagflow

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avelin/dagflow/pkg/api"
)

// yamlDefinition mirrors the wire shape of a definition file. Retry
// delays are human-readable duration strings ("250ms", "5s"), so the
// YAML types differ from the api types and are converted here.
type yamlDefinition struct {
	ID    string     `yaml:"id"`
	Name  string     `yaml:"name"`
	Tasks []yamlTask `yaml:"tasks"`
}

type yamlTask struct {
	ID            string            `yaml:"id"`
	Type          string            `yaml:"type"`
	DependsOn     []string          `yaml:"dependsOn"`
	Conditions    []api.Condition   `yaml:"conditions"`
	Retry         *yamlRetry        `yaml:"retryStrategy"`
	ErrorHandling string            `yaml:"errorHandling"`
	OutputMapping map[string]string `yaml:"outputDataMapping"`
	Config        map[string]any    `yaml:"config"`
}

type yamlRetry struct {
	MaxAttempts int    `yaml:"maxAttempts"`
	Delay       string `yaml:"delay"`
}

// LoadDefinition parses a YAML workflow definition. The result is
// structural only; RegisterWorkflow still validates it.
func LoadDefinition(data []byte) (Definition, error) {
	var raw yamlDefinition
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Definition{}, fmt.Errorf("parse workflow definition: %w", err)
	}

	def := Definition{
		ID:    raw.ID,
		Name:  raw.Name,
		Tasks: make([]api.TaskDefinition, 0, len(raw.Tasks)),
	}
	for _, t := range raw.Tasks {
		task := api.TaskDefinition{
			ID:            t.ID,
			Type:          t.Type,
			DependsOn:     t.DependsOn,
			Conditions:    t.Conditions,
			ErrorHandling: api.ErrorHandling(t.ErrorHandling),
			OutputMapping: t.OutputMapping,
			Config:        t.Config,
		}
		if t.Retry != nil {
			task.Retry.MaxAttempts = t.Retry.MaxAttempts
			if t.Retry.Delay != "" {
				d, err := time.ParseDuration(t.Retry.Delay)
				if err != nil {
					return Definition{}, fmt.Errorf("task %q: invalid retry delay %q: %w", t.ID, t.Retry.Delay, err)
				}
				task.Retry.Delay = d
			}
		}
		def.Tasks = append(def.Tasks, task)
	}
	return def, nil
}
