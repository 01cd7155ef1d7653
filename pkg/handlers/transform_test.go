package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelin/dagflow/pkg/api"
)

func TestDataTransformation_MapAndReduce(t *testing.T) {
	h := NewDataTransformation()

	out, err := h(context.Background(), api.TaskInput{
		TaskID: "shape",
		Type:   TypeDataTransformation,
		Config: map[string]any{
			"transformations": []any{
				map[string]any{
					"type":   "map",
					"source": "$.orders",
					"target": "totals",
					"mapping": map[string]any{
						"amount": "total",
					},
				},
				map[string]any{
					"type":      "reduce",
					"source":    "$.orders",
					"target":    "grandTotal",
					"operation": "sum",
					"initial":   0,
				},
			},
		},
		Data: map[string]any{
			"orders": []any{
				map[string]any{"id": "o1", "total": 10.0},
				map[string]any{"id": "o2", "total": 32.5},
			},
		},
	})
	require.NoError(t, err)

	data := out.(map[string]any)
	totals := data["totals"].([]any)
	require.Len(t, totals, 2)
	assert.Equal(t, 10.0, totals[0].(map[string]any)["amount"])
	assert.Equal(t, 32.5, totals[1].(map[string]any)["amount"])
	assert.InDelta(t, 42.5, data["grandTotal"], 1e-9)
}

func TestDataTransformation_Filter(t *testing.T) {
	h := NewDataTransformation()

	out, err := h(context.Background(), api.TaskInput{
		Config: map[string]any{
			"transformations": []any{
				map[string]any{
					"type":   "filter",
					"source": "$.orders",
					"target": "paid",
					"conditions": []any{
						map[string]any{"left": "$.status", "operator": "eq", "right": "paid"},
					},
				},
			},
		},
		Data: map[string]any{
			"orders": []any{
				map[string]any{"id": "o1", "status": "paid"},
				map[string]any{"id": "o2", "status": "pending"},
			},
		},
	})
	require.NoError(t, err)

	paid := out.(map[string]any)["paid"].([]any)
	require.Len(t, paid, 1)
	assert.Equal(t, "o1", paid[0].(map[string]any)["id"])
}

func TestDataTransformation_BadConfig(t *testing.T) {
	h := NewDataTransformation()

	_, err := h(context.Background(), api.TaskInput{
		Config: map[string]any{},
		Data:   map[string]any{},
	})
	assert.Error(t, err)

	_, err = h(context.Background(), api.TaskInput{
		Config: map[string]any{
			"transformations": []any{
				map[string]any{"type": "map", "source": "$.missing", "target": "out"},
			},
		},
		Data: map[string]any{},
	})
	assert.Error(t, err)
}
