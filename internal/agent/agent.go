package agent

import (
  "github.com/taskpilot-org/taskpilot-backend/internal/tools"
)

// Agent is one role in the chat pipeline: fixed instructions, an optional
// tool set, and the set of agents it may hand control to. Instructions are
// static; nothing is learned or updated at runtime.
type Agent struct {
  Name         string
  Instructions string
  Tools        []tools.Tool
  Handoffs     []*Agent
}

const handoffPrefix = "transfer_to_"

// HandoffToolName is the pseudo-tool the model invokes to pass control.
func HandoffToolName(target *Agent) string {
  return handoffPrefix + target.Name
}

func (a *Agent) handoffTarget(toolName string) *Agent {
  for _, h := range a.Handoffs {
    if HandoffToolName(h) == toolName {
      return h
    }
  }
  return nil
}

func (a *Agent) toolByName(name string) (tools.Tool, bool) {
  for _, t := range a.Tools {
    if t.Name == name {
      return t, true
    }
  }
  return tools.Tool{}, false
}

const actionAgentInstructions = `You are a task management assistant that executes task operations for the user.

You have access to the following tools:
- add_task: Create a new task (requires title, optional description)
- list_tasks: List all tasks for the user
- get_task: Get a specific task by its ID
- update_task: Update a task's title or description
- complete_task: Toggle a task's completion status
- delete_task: Delete a task by ID

Guidelines:
- When asked to add a task, extract the title and optional description from the user's message.
- When listing tasks, present them in a clear, readable format.
- When the user wants to complete, update, or delete a task, you may need to list tasks first to find the correct task ID.
- Always confirm what action you took and show the result.
- If a tool returns an error, explain the issue clearly to the user.
- Be concise but friendly in your responses.
`

const orchestratorInstructions = `You are an intelligent task management orchestrator. Your job is to understand the user's intent and delegate to the appropriate specialist agent.

Available agents:
- action_agent: Handles all task CRUD operations (add, list, get, update, complete, delete tasks)

Routing rules:
1. Task management requests (add, create, list, show, view, get, update, edit, complete, done, finish, delete, remove tasks) -> call transfer_to_action_agent to hand off to action_agent
2. Greetings and general conversation -> respond directly with a friendly message, mentioning you can help manage tasks
3. If the user's intent is unclear, ask a clarifying question

Always be helpful, concise, and friendly.
`

// NewActionAgent builds the executor role wielding the task tools.
func NewActionAgent() *Agent {
  return &Agent{
    Name:         "action_agent",
    Instructions: actionAgentInstructions,
    Tools:        tools.TaskTools(),
  }
}

// NewOrchestratorAgent builds the router role. Its only capability is the
// one-way handoff to the action agent.
func NewOrchestratorAgent(action *Agent) *Agent {
  return &Agent{
    Name:         "orchestrator_agent",
    Instructions: orchestratorInstructions,
    Handoffs:     []*Agent{action},
  }
}
