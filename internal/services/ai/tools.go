package ai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

// Tool names recognized by the dispatcher. The schema below and the
// client-side dispatch table must agree; drift between them means the
// model can request mutations no client applies.
const (
	ToolCreateListWithTasks = "createListWithTasks"
	ToolCreateTodosInList   = "createTodosInList"
	ToolRenameList          = "renameList"
	ToolUpdateTodo          = "updateTodo"
	ToolDeleteTodo          = "deleteTodo"
	ToolDeleteList          = "deleteList"
)

// todoItemSchema describes one task in a bulk-create payload. "title" is
// accepted as a legacy alias for "text".
func todoItemSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{
				"type":        "string",
				"description": "The todo text",
			},
			"title": map[string]any{
				"type":        "string",
				"description": "Legacy alias for text",
			},
			"completed": map[string]any{
				"type":        "boolean",
				"description": "Whether the todo starts completed; defaults to false",
			},
			"dueDate": map[string]any{
				"type":        "string",
				"description": "Optional due date, ISO 8601 with timezone offset",
			},
		},
	}
}

// toolSchema is the fixed six-function schema attached to every chat
// round, streaming or not.
func toolSchema() []openai.ChatCompletionToolUnionParam {
	return []openai.ChatCompletionToolUnionParam{
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolCreateListWithTasks,
			Description: openai.String("Create a new list, optionally populated with tasks"),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"title": map[string]any{
						"type":        "string",
						"description": "Name of the new list",
					},
					"tasks": map[string]any{
						"type":        "array",
						"items":       todoItemSchema(),
						"description": "Initial tasks for the list",
					},
				},
				"required": []string{"title"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolCreateTodosInList,
			Description: openai.String("Add one or more todos to an existing list"),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"listId": map[string]any{
						"type":        "string",
						"description": "Id of the target list, from the current state",
					},
					"todos": map[string]any{
						"type":        "array",
						"items":       todoItemSchema(),
						"description": "Todos to append",
					},
				},
				"required": []string{"listId", "todos"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolRenameList,
			Description: openai.String("Rename an existing list"),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"listId": map[string]any{
						"type":        "string",
						"description": "Id of the list to rename",
					},
					"title": map[string]any{
						"type":        "string",
						"description": "New name for the list",
					},
				},
				"required": []string{"listId", "title"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolUpdateTodo,
			Description: openai.String("Update a todo's text, completion state or due date"),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"todoId": map[string]any{
						"type":        "string",
						"description": "Id of the todo to update",
					},
					"text": map[string]any{
						"type":        "string",
						"description": "New text, omit to keep",
					},
					"completed": map[string]any{
						"type":        "boolean",
						"description": "New completion state, omit to keep",
					},
					"dueDate": map[string]any{
						"type":        "string",
						"description": "New due date (ISO 8601), empty string to clear, omit to keep",
					},
				},
				"required": []string{"todoId"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolDeleteTodo,
			Description: openai.String("Delete a todo"),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"todoId": map[string]any{
						"type":        "string",
						"description": "Id of the todo to delete",
					},
				},
				"required": []string{"todoId"},
			},
		}),
		openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        ToolDeleteList,
			Description: openai.String("Delete a list and everything in it"),
			Parameters: shared.FunctionParameters{
				"type": "object",
				"properties": map[string]any{
					"listId": map[string]any{
						"type":        "string",
						"description": "Id of the list to delete",
					},
				},
				"required": []string{"listId"},
			},
		}),
	}
}

// ToolNames returns the recognized tool names in schema order.
func ToolNames() []string {
	return []string{
		ToolCreateListWithTasks,
		ToolCreateTodosInList,
		ToolRenameList,
		ToolUpdateTodo,
		ToolDeleteTodo,
		ToolDeleteList,
	}
}
