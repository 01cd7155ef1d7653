// Package handlers ships the engine's built-in task handlers:
// data_transformation, notification and external_api. Each handler
// decodes its loosely-typed task config into a typed struct before
// doing any work, so malformed config fails the task up front.
package handlers

import (
	"context"
	"fmt"

	"github.com/go-viper/mapstructure/v2"

	"github.com/avelin/dagflow/internal/expr"
	"github.com/avelin/dagflow/pkg/api"
)

// TypeDataTransformation is the task type served by NewDataTransformation.
const TypeDataTransformation = "data_transformation"

type transformConfig struct {
	Transformations []expr.Transformation `mapstructure:"transformations"`
}

// NewDataTransformation returns the handler for data_transformation
// tasks. Config shape:
//
//	transformations:
//	  - type: filter
//	    source: "$.orders"
//	    target: "paid"
//	    conditions:
//	      - {left: "$.status", operator: eq, right: "paid"}
//
// The transformations run against the task's data snapshot and the
// handler returns the transformed snapshot; results re-enter the
// instance data only through the task's output mapping.
func NewDataTransformation() api.Handler {
	return func(ctx context.Context, in api.TaskInput) (any, error) {
		var cfg transformConfig
		if err := decodeConfig(in.Config, &cfg); err != nil {
			return nil, err
		}
		if len(cfg.Transformations) == 0 {
			return nil, fmt.Errorf("data_transformation: no transformations configured")
		}
		if err := expr.Apply(cfg.Transformations, in.Data); err != nil {
			return nil, err
		}
		return in.Data, nil
	}
}

func decodeConfig(config map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(config); err != nil {
		return fmt.Errorf("invalid task config: %w", err)
	}
	return nil
}
