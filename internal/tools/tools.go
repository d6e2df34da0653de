// Package tools defines the task-management tools available to the
// agent. Every handler receives the authenticated owner's user id from
// the host system — never from model-supplied arguments — and returns a
// uniform Envelope. Ambiguous title references are refused, never
// silently resolved.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/finchley/taskchat/internal/store"
)

// Tool represents a callable tool.
type Tool struct {
	Name        string                                                                 `json:"name"`
	Description string                                                                 `json:"description"`
	Parameters  map[string]any                                                         `json:"parameters"`
	Handler     func(ctx context.Context, userID string, args map[string]any) Envelope `json:"-"`
}

// Registry holds the fixed tool catalog over the task store.
type Registry struct {
	tools map[string]*Tool
	store *store.Store
}

// NewRegistry creates a tool registry bound to st.
func NewRegistry(st *store.Store) *Registry {
	r := &Registry{
		tools: make(map[string]*Tool),
		store: st,
	}
	r.registerBuiltins()
	return r
}

func (r *Registry) registerBuiltins() {
	r.register(&Tool{
		Name:        "add_task",
		Description: "Create a new task for the user.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title": map[string]any{
					"type":        "string",
					"description": "The task title (1-200 chars)",
				},
				"description": map[string]any{
					"type":        "string",
					"description": "Optional task description",
				},
			},
			"required": []string{"title"},
		},
		Handler: r.handleAddTask,
	})

	r.register(&Tool{
		Name:        "list_tasks",
		Description: "List all tasks for the user. Optionally filter by status.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status_filter": map[string]any{
					"type":        "string",
					"enum":        []string{"all", "completed", "incomplete"},
					"description": "Filter tasks by status. Default is 'all'.",
				},
			},
			"required": []string{},
		},
		Handler: r.handleListTasks,
	})

	r.register(&Tool{
		Name:        "complete_task",
		Description: "Mark a task as completed. Identifies the task by title or partial title match.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_title": map[string]any{
					"type":        "string",
					"description": "The title (or part of the title) of the task to complete",
				},
			},
			"required": []string{"task_title"},
		},
		Handler: r.handleCompleteTask,
	})

	r.register(&Tool{
		Name:        "delete_task",
		Description: "Delete a task. Identifies the task by title or partial title match.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_title": map[string]any{
					"type":        "string",
					"description": "The title (or part of the title) of the task to delete",
				},
			},
			"required": []string{"task_title"},
		},
		Handler: r.handleDeleteTask,
	})

	r.register(&Tool{
		Name:        "update_task",
		Description: "Update a task's title or description. Identifies the task by current title or partial title match.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"task_title": map[string]any{
					"type":        "string",
					"description": "The current title (or part of it) to identify the task",
				},
				"new_title": map[string]any{
					"type":        "string",
					"description": "The new title for the task",
				},
				"new_description": map[string]any{
					"type":        "string",
					"description": "The new description for the task",
				},
			},
			"required": []string{"task_title"},
		},
		Handler: r.handleUpdateTask,
	})
}

func (r *Registry) register(t *Tool) {
	r.tools[t.Name] = t
}

// Get retrieves a tool by name, or nil.
func (r *Registry) Get(name string) *Tool {
	return r.tools[name]
}

// Names returns the catalog's tool names in a fixed order.
func (r *Registry) Names() []string {
	return []string{"add_task", "list_tasks", "complete_task", "delete_task", "update_task"}
}

// List returns the tool catalog in the function-calling schema the
// model expects.
func (r *Registry) List() []map[string]any {
	var result []map[string]any
	for _, name := range r.Names() {
		t := r.tools[name]
		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return result
}

// Execute runs a tool by name for the given owner. Unknown names yield
// an error envelope rather than a fault, so the model can correct
// itself on the next iteration.
func (r *Registry) Execute(ctx context.Context, userID, name string, args map[string]any) Envelope {
	tool := r.tools[name]
	if tool == nil {
		return Fail(fmt.Sprintf("Unknown tool: %s", name))
	}
	if args == nil {
		args = map[string]any{}
	}
	return tool.Handler(ctx, userID, args)
}

// taskView is the model-visible projection of a task.
type taskView struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Completed   bool    `json:"completed"`
}

func viewOf(t *store.Task) taskView {
	v := taskView{ID: t.ID, Title: t.Title, Completed: t.Completed}
	if t.Description != "" {
		v.Description = &t.Description
	}
	return v
}

func stringArg(args map[string]any, key string) (string, bool) {
	s, ok := args[key].(string)
	return s, ok && s != ""
}

// Tool handlers

func (r *Registry) handleAddTask(ctx context.Context, userID string, args map[string]any) Envelope {
	title, ok := stringArg(args, "title")
	if !ok {
		return Fail("title is required")
	}
	description, _ := args["description"].(string)

	task, err := r.store.CreateTask(userID, title, description)
	if err != nil {
		return Fail(err.Error())
	}

	return OK(viewOf(task), fmt.Sprintf("Task '%s' created successfully.", task.Title))
}

func (r *Registry) handleListTasks(ctx context.Context, userID string, args map[string]any) Envelope {
	raw, _ := args["status_filter"].(string)
	filter, err := store.ParseStatusFilter(raw)
	if err != nil {
		return Fail(err.Error())
	}

	tasks, err := r.store.ListTasks(userID, filter)
	if err != nil {
		return Fail(err.Error())
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, viewOf(t))
	}
	return OK(views, fmt.Sprintf("Found %d task(s).", len(views)))
}

func (r *Registry) handleCompleteTask(ctx context.Context, userID string, args map[string]any) Envelope {
	title, ok := stringArg(args, "task_title")
	if !ok {
		return Fail("task_title is required")
	}

	task, env := r.resolveByTitle(userID, title)
	if task == nil {
		return env
	}

	completed := true
	updated, err := r.store.UpdateTask(userID, task.ID, store.TaskUpdate{Completed: &completed})
	if err != nil {
		return Fail(err.Error())
	}

	return OK(viewOf(updated), fmt.Sprintf("Task '%s' marked as complete.", updated.Title))
}

func (r *Registry) handleDeleteTask(ctx context.Context, userID string, args map[string]any) Envelope {
	title, ok := stringArg(args, "task_title")
	if !ok {
		return Fail("task_title is required")
	}

	task, env := r.resolveByTitle(userID, title)
	if task == nil {
		return env
	}

	if err := r.store.DeleteTask(userID, task.ID); err != nil {
		return Fail(err.Error())
	}

	return OK(viewOf(task), fmt.Sprintf("Task '%s' deleted.", task.Title))
}

func (r *Registry) handleUpdateTask(ctx context.Context, userID string, args map[string]any) Envelope {
	title, ok := stringArg(args, "task_title")
	if !ok {
		return Fail("task_title is required")
	}

	task, env := r.resolveByTitle(userID, title)
	if task == nil {
		return env
	}

	var upd store.TaskUpdate
	if v, ok := args["new_title"].(string); ok {
		upd.Title = &v
	}
	if v, ok := args["new_description"].(string); ok {
		upd.Description = &v
	}

	updated, err := r.store.UpdateTask(userID, task.ID, upd)
	if err != nil {
		return Fail(err.Error())
	}

	return OK(viewOf(updated), "Task updated successfully.")
}

// resolveByTitle applies the substring disambiguation policy: exactly
// one case-insensitive match proceeds; zero or many refuse with an
// error envelope and no mutation.
func (r *Registry) resolveByTitle(userID, title string) (*store.Task, Envelope) {
	matches, err := r.store.FindTasksByTitle(userID, title)
	if err != nil {
		return nil, Fail(err.Error())
	}

	switch len(matches) {
	case 0:
		return nil, Fail(fmt.Sprintf("No task found matching '%s'.", title))
	case 1:
		return matches[0], Envelope{}
	default:
		titles := make([]string, len(matches))
		for i, m := range matches {
			titles[i] = fmt.Sprintf("'%s'", m.Title)
		}
		return nil, Fail(fmt.Sprintf("Multiple tasks match '%s': %s. Please be more specific.",
			title, strings.Join(titles, ", ")))
	}
}
