package workout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// planGenerator produces a workout plan for a request.
type planGenerator interface {
	Generate(ctx context.Context, req PlanRequest) (generatedPlan, error)
}

// openAIPlanGenerator generates plans with structured outputs of the OpenAI chat completions API.
type openAIPlanGenerator struct {
	client openai.Client
}

func newOpenAIPlanGenerator(openaiAPIKey string) *openAIPlanGenerator {
	return &openAIPlanGenerator{
		client: openai.NewClient(option.WithAPIKey(openaiAPIKey)),
	}
}

const planSystemPrompt = `You are an experienced strength coach. You design weekly resistance training splits.
Only use well known exercises and name them the way lifters commonly do, e.g. "Barbell Back Squat".
Rep ranges must satisfy 1 <= min_reps <= max_reps <= 50. Working sets per exercise are between 1 and 10
and warmup sets between 0 and 5. Keep notes short and practical.`

func planPrompt(req PlanRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Design a training split with exactly %d training days per week.\n", req.DaysPerWeek)
	fmt.Fprintf(&b, "Goal: %s\n", req.Goal)
	if req.Experience != "" {
		fmt.Fprintf(&b, "Experience level: %s\n", req.Experience)
	}
	if req.SessionMinutes > 0 {
		fmt.Fprintf(&b, "Each session must fit in %d minutes.\n", req.SessionMinutes)
	}
	if len(req.Equipment) > 0 {
		fmt.Fprintf(&b, "Available equipment: %s\n", strings.Join(req.Equipment, ", "))
	}
	return b.String()
}

// planJSONSchema is the strict schema of generatedPlan.
//
//nolint:gochecknoglobals // read-only schema document.
var planJSONSchema = map[string]any{
	"type":                 "object",
	"required":             []string{"name", "description", "days"},
	"additionalProperties": false,
	"properties": map[string]any{
		"name":        map[string]any{"type": "string", "description": "Short name of the split"},
		"description": map[string]any{"type": "string", "description": "One paragraph summary of the split"},
		"days": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"required":             []string{"name", "exercises"},
				"additionalProperties": false,
				"properties": map[string]any{
					"name": map[string]any{"type": "string", "description": "Name of the day, e.g. Push"},
					"exercises": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type":                 "object",
							"required":             []string{"name", "sets", "min_reps", "max_reps", "warmup_sets", "notes"},
							"additionalProperties": false,
							"properties": map[string]any{
								"name":        map[string]any{"type": "string"},
								"sets":        map[string]any{"type": "integer"},
								"min_reps":    map[string]any{"type": "integer"},
								"max_reps":    map[string]any{"type": "integer"},
								"warmup_sets": map[string]any{"type": "integer"},
								"notes":       map[string]any{"type": "string"},
							},
						},
					},
				},
			},
		},
	},
}

// Generate queries the model and parses its answer. Validation is left to the caller.
func (g *openAIPlanGenerator) Generate(ctx context.Context, req PlanRequest) (generatedPlan, error) {
	chat, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{ //nolint:exhaustruct // defaults.
		Model: openai.ChatModelGPT4o,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(planSystemPrompt),
			openai.UserMessage(planPrompt(req)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{ //nolint:exhaustruct // one variant.
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{ //nolint:exhaustruct // type has a default.
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "workout_split",
					Description: openai.String("A weekly resistance training split"),
					Strict:      openai.Bool(true),
					Schema:      planJSONSchema,
				},
			},
		},
	})
	if err != nil {
		return generatedPlan{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return generatedPlan{}, errors.New("chat completion returned no choices")
	}

	return parsePlan(chat.Choices[0].Message.Content)
}

func parsePlan(content string) (generatedPlan, error) {
	var plan generatedPlan
	if err := json.Unmarshal([]byte(content), &plan); err != nil {
		return generatedPlan{}, fmt.Errorf("parse plan response: %w", err)
	}
	return plan, nil
}
