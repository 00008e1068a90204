package agent

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"

  "github.com/tmc/langchaingo/llms"

  "github.com/taskpilot-org/taskpilot-backend/internal/logger"
  "github.com/taskpilot-org/taskpilot-backend/internal/tools"
)

// Message is one role/content pair of replayed conversation history.
type Message struct {
  Role    string
  Content string
}

// ToolCallRecord is the post-hoc record of one tool invocation made while
// producing the final output. Result holds the raw JSON the tool returned.
type ToolCallRecord struct {
  Name   string `json:"name"`
  Result string `json:"result"`
}

// RunResult is the outcome of one agent run: the final natural-language
// output plus the ordered record of tool invocations.
type RunResult struct {
  FinalOutput string
  ToolCalls   []ToolCallRecord
}

const defaultMaxTurns = 10

// Runner drives the orchestrator/executor pair over an LLM. One Run call is
// one logical request/response; there is no mid-turn interaction with the
// caller and no streaming.
type Runner struct {
  llm      llms.Model
  log      *logger.Logger
  start    *Agent
  maxTurns int
}

func NewRunner(llm llms.Model, log *logger.Logger) *Runner {
  action := NewActionAgent()
  return &Runner{
    llm:      llm,
    log:      log.With("component", "AgentRunner"),
    start:    NewOrchestratorAgent(action),
    maxTurns: defaultMaxTurns,
  }
}

// Run replays history to the active agent and loops on model turns until the
// model answers with plain text. A handoff swaps the active agent (and its
// system instructions and tool set) for the remainder of the run.
func (r *Runner) Run(ctx context.Context, history []Message, tc *tools.Context) (*RunResult, error) {
  current := r.start

  msgs := make([]llms.MessageContent, 0, len(history)+1)
  msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, current.Instructions))
  for _, m := range history {
    msgs = append(msgs, llms.TextParts(chatMessageType(m.Role), m.Content))
  }

  result := &RunResult{}
  for turn := 0; turn < r.maxTurns; turn++ {
    resp, err := r.llm.GenerateContent(ctx, msgs, llms.WithTools(r.toolDefs(current)))
    if err != nil {
      return nil, fmt.Errorf("model call failed: %w", err)
    }
    if len(resp.Choices) == 0 {
      return nil, errors.New("model returned no choices")
    }
    choice := resp.Choices[0]

    if len(choice.ToolCalls) == 0 {
      result.FinalOutput = choice.Content
      return result, nil
    }

    assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
    if choice.Content != "" {
      assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
    }
    for _, call := range choice.ToolCalls {
      assistant.Parts = append(assistant.Parts, call)
    }
    msgs = append(msgs, assistant)

    for _, call := range choice.ToolCalls {
      if call.FunctionCall == nil {
        continue
      }
      name := call.FunctionCall.Name

      if next := current.handoffTarget(name); next != nil {
        r.log.Debug("agent handoff", "from", current.Name, "to", next.Name)
        current = next
        msgs[0] = llms.TextParts(llms.ChatMessageTypeSystem, current.Instructions)
        msgs = append(msgs, toolResponse(call, fmt.Sprintf("transferred to %s", next.Name)))
        continue
      }

      tool, ok := current.toolByName(name)
      if !ok {
        r.log.Warn("model invoked unknown tool", "tool", name, "agent", current.Name)
        out, _ := json.Marshal(map[string]string{"error": "unknown tool: " + name})
        msgs = append(msgs, toolResponse(call, string(out)))
        continue
      }

      out, err := tool.Execute(ctx, tc, json.RawMessage(call.FunctionCall.Arguments))
      if err != nil {
        return nil, fmt.Errorf("tool %s failed: %w", name, err)
      }
      r.log.Debug("tool executed", "tool", name, "agent", current.Name)
      result.ToolCalls = append(result.ToolCalls, ToolCallRecord{Name: name, Result: out})
      msgs = append(msgs, toolResponse(call, out))
    }
  }
  return nil, fmt.Errorf("agent run exceeded %d turns", r.maxTurns)
}

func (r *Runner) toolDefs(a *Agent) []llms.Tool {
  defs := make([]llms.Tool, 0, len(a.Handoffs)+len(a.Tools))
  for _, h := range a.Handoffs {
    defs = append(defs, llms.Tool{
      Type: "function",
      Function: &llms.FunctionDefinition{
        Name:        HandoffToolName(h),
        Description: fmt.Sprintf("Hand the conversation off to %s for the remainder of this turn.", h.Name),
        Parameters: map[string]interface{}{
          "type":       "object",
          "properties": map[string]interface{}{},
        },
      },
    })
  }
  for _, t := range a.Tools {
    defs = append(defs, llms.Tool{
      Type: "function",
      Function: &llms.FunctionDefinition{
        Name:        t.Name,
        Description: t.Description,
        Parameters:  t.Parameters,
      },
    })
  }
  return defs
}

func toolResponse(call llms.ToolCall, content string) llms.MessageContent {
  return llms.MessageContent{
    Role: llms.ChatMessageTypeTool,
    Parts: []llms.ContentPart{
      llms.ToolCallResponse{
        ToolCallID: call.ID,
        Name:       call.FunctionCall.Name,
        Content:    content,
      },
    },
  }
}

func chatMessageType(role string) llms.ChatMessageType {
  switch role {
  case "assistant":
    return llms.ChatMessageTypeAI
  case "system":
    return llms.ChatMessageTypeSystem
  default:
    return llms.ChatMessageTypeHuman
  }
}
