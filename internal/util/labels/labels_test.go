package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLabelBuilder_Server(t *testing.T) {
	t.Parallel()
	got := NewLabelBuilder("demo").
		WithRole("worker").
		WithNode("w1").
		WithPreemptible(true).
		Build()

	assert.Equal(t, map[string]string{
		KeyCluster:     "demo",
		KeyManagedBy:   ManagedByHkube,
		KeyRole:        "worker",
		KeyNode:        "w1",
		KeyPreemptible: "true",
	}, got)
}

func TestLabelBuilder_BuildReturnsCopy(t *testing.T) {
	t.Parallel()
	lb := NewLabelBuilder("demo")

	first := lb.Build()
	first["mutated"] = "yes"

	assert.NotContains(t, lb.Build(), "mutated")
}

func TestLabelBuilder_MergeOverrides(t *testing.T) {
	t.Parallel()
	got := NewLabelBuilder("demo").Merge(map[string]string{KeyManagedBy: "other", "team": "infra"}).Build()

	assert.Equal(t, "other", got[KeyManagedBy])
	assert.Equal(t, "infra", got["team"])
}

func TestSelectorForCluster(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "hkube.io/cluster=demo", SelectorForCluster("demo"))
}
