package reasoning

import (
	"github.com/convosuite/mcpcore/core"
)

// subTaskTemplate is one step of an intent's decomposition recipe.
type subTaskTemplate struct {
	description string
	intent      string
	role        core.AgentRole
}

// decompositionTemplates maps a primary intent to its ordered subtask
// recipe. Intents without a recipe fall back to the generic three-step plan.
var decompositionTemplates = map[string][]subTaskTemplate{
	"content_creation": {
		{"plan the content structure and key points", "content_creation", core.RoleContentCreator},
		{"generate the draft", "content_creation", core.RoleContentCreator},
		{"review and polish the result", "content_creation", core.RoleContentCreator},
	},
	"data_analysis": {
		{"collect the relevant data", "data_analysis", core.RoleDataAnalyst},
		{"clean and prepare the data", "data_analysis", core.RoleDataAnalyst},
		{"run the analysis", "data_analysis", core.RoleDataAnalyst},
		{"extract insights and conclusions", "data_analysis", core.RoleDataAnalyst},
	},
	"customer_support": {
		{"classify the issue", "customer_support", core.RoleCustomerSupport},
		{"resolve or escalate the issue", "customer_support", core.RoleCustomerSupport},
		{"confirm the resolution with the user", "customer_support", core.RoleCustomerSupport},
	},
	"automation": {
		{"map the current process", "automation", core.RoleWorkflowAutomation},
		{"design the workflow", "automation", core.RoleWorkflowAutomation},
		{"validate the workflow against the process", "automation", core.RoleWorkflowAutomation},
	},
}

var genericTemplate = []subTaskTemplate{
	{"understand the request and its constraints", "general", core.RoleGeneralAssistant},
	{"carry out the request", "general", core.RoleGeneralAssistant},
	{"verify the outcome", "general", core.RoleGeneralAssistant},
}

// Decompose expands the analysis into an ordered subtask list. Each detected
// intent contributes its recipe; unrecognized primaries use the generic
// plan. Dependencies form a strict linear chain in emission order.
func Decompose(a Analysis) []core.SubTask {
	var templates []subTaskTemplate
	for _, intent := range a.Intents {
		if recipe, ok := decompositionTemplates[intent.Name]; ok {
			templates = append(templates, recipe...)
		}
	}
	if len(templates) == 0 {
		templates = genericTemplate
	}

	tasks := make([]core.SubTask, 0, len(templates))
	prev := ""
	for _, tpl := range templates {
		t := core.SubTask{
			ID:          core.NewID(),
			Description: tpl.description,
			Intent:      tpl.intent,
			AgentRole:   tpl.role,
			DependsOn:   prev,
			Status:      core.SubTaskPending,
		}
		prev = t.ID
		tasks = append(tasks, t)
	}
	return tasks
}
