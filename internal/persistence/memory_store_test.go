package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelin/dagflow/pkg/api"
)

func TestInMemoryStore_Definitions(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.GetDefinition("missing")
	assert.ErrorIs(t, err, ErrDefinitionNotFound)

	def := api.Definition{
		ID:    "wf-1",
		Name:  "orders",
		Tasks: []api.TaskDefinition{{ID: "a", Type: "noop"}},
	}
	require.NoError(t, store.SaveDefinition(def))

	got, err := store.GetDefinition("wf-1")
	require.NoError(t, err)
	assert.Equal(t, "orders", got.Name)
	assert.Len(t, got.Tasks, 1)

	all, err := store.ListDefinitions()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestInMemoryStore_Instances(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.GetInstance("missing")
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	err = store.UpdateInstance(&api.Instance{ID: "missing"})
	assert.ErrorIs(t, err, ErrInstanceNotFound)

	inst := &api.Instance{
		ID:           "inst-1",
		DefinitionID: "wf-1",
		Status:       api.StatusRunning,
		Data:         map[string]any{"k": "v"},
	}
	require.NoError(t, store.SaveInstance(inst))

	got, err := store.GetInstance("inst-1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusRunning, got.Status)

	inst2 := inst.Clone()
	inst2.Status = api.StatusCompleted
	require.NoError(t, store.UpdateInstance(inst2))

	got, err = store.GetInstance("inst-1")
	require.NoError(t, err)
	assert.Equal(t, api.StatusCompleted, got.Status)
}

func TestInMemoryStore_ListInstancesFilter(t *testing.T) {
	store := NewInMemoryStore()

	require.NoError(t, store.SaveInstance(&api.Instance{ID: "a", DefinitionID: "wf-1", Status: api.StatusRunning}))
	require.NoError(t, store.SaveInstance(&api.Instance{ID: "b", DefinitionID: "wf-1", Status: api.StatusCompleted}))
	require.NoError(t, store.SaveInstance(&api.Instance{ID: "c", DefinitionID: "wf-2", Status: api.StatusRunning}))

	all, err := store.ListInstances(InstanceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	byDef, err := store.ListInstances(InstanceFilter{DefinitionID: "wf-1"})
	require.NoError(t, err)
	assert.Len(t, byDef, 2)

	byStatus, err := store.ListInstances(InstanceFilter{Status: api.StatusRunning})
	require.NoError(t, err)
	assert.Len(t, byStatus, 2)

	both, err := store.ListInstances(InstanceFilter{DefinitionID: "wf-1", Status: api.StatusRunning})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, "a", both[0].ID)
}
