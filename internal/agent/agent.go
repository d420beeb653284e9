// Package agent drives the Gemini function-calling loop over a statement
// ledger: the model decides which ledger operations to call, the agent
// executes them, and the model phrases the final answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/dvloznov/statement-agent/internal/ledger"
	"github.com/dvloznov/statement-agent/internal/logger"
	"github.com/dvloznov/statement-agent/internal/query"
)

// maxToolRounds bounds the tool-call loop; a well-behaved model answers in
// two or three rounds.
const maxToolRounds = 8

const systemPrompt = "You are a helpful assistant for analyzing one bank statement. " +
	"Answer the user's question using the provided ledger tools; call them as often as needed. " +
	"Amounts are signed: debits (money out) are negative, credits (money in) are positive. " +
	"Give a concise, natural language answer in plain text, never raw JSON. " +
	"If the tool results carry warnings about skipped rows, mention that the answer may be incomplete."

// Agent answers questions about a ledger through a Gemini model.
type Agent struct {
	model string
}

// New creates an agent using the given Gemini model name.
func New(model string) *Agent {
	return &Agent{model: model}
}

// Answer runs the question against the ledger and returns the model's final
// natural-language reply.
func (a *Agent) Answer(ctx context.Context, l *ledger.Ledger, question string) (string, error) {
	log := logger.FromContext(ctx)

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("Answer: create genai client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt}},
		},
		Tools: []*genai.Tool{
			{FunctionDeclarations: toolDeclarations()},
		},
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: question}},
		},
	}

	for round := 0; round < maxToolRounds; round++ {
		resp, err := client.Models.GenerateContent(ctx, a.model, contents, cfg)
		if err != nil {
			return "", fmt.Errorf("Answer: generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", fmt.Errorf("Answer: empty response from model")
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			text := resp.Text()
			if text == "" {
				return "", fmt.Errorf("Answer: model returned neither text nor tool calls")
			}
			return text, nil
		}

		contents = append(contents, resp.Candidates[0].Content)
		for _, call := range calls {
			log.Debug().Str("tool", call.Name).Interface("args", call.Args).Msg("executing tool call")
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: executeCall(l, call),
				}}},
			})
		}
	}

	return "", fmt.Errorf("Answer: no final answer after %d tool rounds", maxToolRounds)
}

// executeCall runs one tool call against the ledger. Failures are reported
// back to the model as an error field rather than aborting the loop, so it
// can correct the request or state the limitation in its answer.
func executeCall(l *ledger.Ledger, call *genai.FunctionCall) map[string]any {
	req, err := decodeRequest(call.Name, call.Args)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	res, err := query.Invoke(l, req)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	return resultToMap(res)
}

// resultToMap renders a ToolResult as the generic map the genai function
// response wants.
func resultToMap(res *query.ToolResult) map[string]any {
	data, err := json.Marshal(res)
	if err != nil {
		return map[string]any{"error": fmt.Sprintf("encode result: %v", err)}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"error": fmt.Sprintf("encode result: %v", err)}
	}
	return out
}
