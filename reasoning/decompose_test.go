package reasoning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/convosuite/mcpcore/core"
)

func TestDecompose_IntentTemplates(t *testing.T) {
	a := Analyze("analizar los datos del informe")
	tasks := Decompose(a)
	require.Len(t, tasks, 4)
	for _, task := range tasks {
		assert.Equal(t, core.RoleDataAnalyst, task.AgentRole)
		assert.Equal(t, core.SubTaskPending, task.Status)
	}
}

func TestDecompose_MultipleIntentsConcatenateRecipes(t *testing.T) {
	a := Analyze("analizar datos y optimizar el workflow completo")
	tasks := Decompose(a)
	roles := map[core.AgentRole]bool{}
	for _, task := range tasks {
		roles[task.AgentRole] = true
	}
	assert.True(t, roles[core.RoleDataAnalyst])
	assert.True(t, roles[core.RoleWorkflowAutomation])
}

func TestDecompose_GenericFallback(t *testing.T) {
	a := Analyze("hmm")
	tasks := Decompose(a)
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.Equal(t, core.RoleGeneralAssistant, task.AgentRole)
	}
}

func TestDecompose_LinearDependencyChain(t *testing.T) {
	tasks := Decompose(Analyze("analizar datos y optimizar el workflow"))
	require.NotEmpty(t, tasks)
	assert.Empty(t, tasks[0].DependsOn)
	for i := 1; i < len(tasks); i++ {
		assert.Equal(t, tasks[i-1].ID, tasks[i].DependsOn)
	}
}
