package store

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateTask(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	task, err := store.CreateTask(userID, "Buy milk", "2 liters")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.ID == "" {
		t.Error("expected non-empty task ID")
	}
	if task.Completed {
		t.Error("new task should not be completed")
	}

	got, err := store.GetTask(userID, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Title != "Buy milk" || got.Description != "2 liters" {
		t.Errorf("got %q / %q, want %q / %q", got.Title, got.Description, "Buy milk", "2 liters")
	}
}

func TestCreateTask_TitleValidation(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	if _, err := store.CreateTask(userID, "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("empty title: expected ErrValidation, got %v", err)
	}
	if _, err := store.CreateTask(userID, strings.Repeat("x", 201), ""); !errors.Is(err, ErrValidation) {
		t.Errorf("long title: expected ErrValidation, got %v", err)
	}
	// 200 runes is the inclusive upper bound.
	if _, err := store.CreateTask(userID, strings.Repeat("x", 200), ""); err != nil {
		t.Errorf("200-rune title: unexpected error %v", err)
	}
}

func TestListTasks_Filters(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	a, _ := store.CreateTask(userID, "first", "")
	b, _ := store.CreateTask(userID, "second", "")
	done := true
	if _, err := store.UpdateTask(userID, b.ID, TaskUpdate{Completed: &done}); err != nil {
		t.Fatalf("complete task: %v", err)
	}

	all, err := store.ListTasks(userID, FilterAll)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all: expected 2 tasks, got %d", len(all))
	}
	// Creation order is preserved.
	if all[0].ID != a.ID || all[1].ID != b.ID {
		t.Errorf("expected creation order [%s %s], got [%s %s]", a.ID, b.ID, all[0].ID, all[1].ID)
	}

	completed, err := store.ListTasks(userID, FilterCompleted)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != b.ID {
		t.Errorf("completed: expected [%s], got %d tasks", b.ID, len(completed))
	}

	incomplete, err := store.ListTasks(userID, FilterIncomplete)
	if err != nil {
		t.Fatalf("list incomplete: %v", err)
	}
	if len(incomplete) != 1 || incomplete[0].ID != a.ID {
		t.Errorf("incomplete: expected [%s], got %d tasks", a.ID, len(incomplete))
	}
}

func TestListTasks_OwnerIsolation(t *testing.T) {
	store := setupTestStore(t)
	alice := createTestUser(t, store, "alice@example.com")
	bob := createTestUser(t, store, "bob@example.com")

	if _, err := store.CreateTask(alice, "alice's task", ""); err != nil {
		t.Fatalf("create task: %v", err)
	}

	tasks, err := store.ListTasks(bob, FilterAll)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected no tasks for bob, got %d", len(tasks))
	}
}

func TestGetTask_OtherOwner(t *testing.T) {
	store := setupTestStore(t)
	alice := createTestUser(t, store, "alice@example.com")
	bob := createTestUser(t, store, "bob@example.com")

	task, err := store.CreateTask(alice, "private", "")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	// Another user's task looks exactly like a missing one.
	if _, err := store.GetTask(bob, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestParseStatusFilter(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want StatusFilter
		ok   bool
	}{
		{"", FilterAll, true},
		{"all", FilterAll, true},
		{"completed", FilterCompleted, true},
		{"incomplete", FilterIncomplete, true},
		{"done", "", false},
	} {
		got, err := ParseStatusFilter(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("ParseStatusFilter(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrValidation) {
			t.Errorf("ParseStatusFilter(%q): expected ErrValidation, got %v", tc.in, err)
		}
	}
}

func TestFindTasksByTitle(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	store.CreateTask(userID, "Buy milk", "")
	store.CreateTask(userID, "Buy eggs", "")
	store.CreateTask(userID, "Walk the dog", "")

	matches, err := store.FindTasksByTitle(userID, "buy")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 2 {
		t.Errorf("expected 2 matches for %q, got %d", "buy", len(matches))
	}

	matches, err = store.FindTasksByTitle(userID, "MILK")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 1 || matches[0].Title != "Buy milk" {
		t.Errorf("case-insensitive match failed: got %d matches", len(matches))
	}

	// LIKE metacharacters are plain text to instr.
	matches, err = store.FindTasksByTitle(userID, "%")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches for %%, got %d", len(matches))
	}
}

func TestUpdateTask(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	task, err := store.CreateTask(userID, "old title", "old desc")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	title := "new title"
	done := true
	got, err := store.UpdateTask(userID, task.ID, TaskUpdate{Title: &title, Completed: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Title != "new title" || !got.Completed {
		t.Errorf("got %q completed=%v, want %q completed=true", got.Title, got.Completed, "new title")
	}
	// Untouched fields survive.
	if got.Description != "old desc" {
		t.Errorf("description = %q, want %q", got.Description, "old desc")
	}
}

func TestUpdateTask_NoFields(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	task, err := store.CreateTask(userID, "unchanged", "")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := store.UpdateTask(userID, task.ID, TaskUpdate{})
	if err != nil {
		t.Fatalf("update with no fields: %v", err)
	}
	if got.Title != "unchanged" {
		t.Errorf("title = %q, want %q", got.Title, "unchanged")
	}
}

func TestUpdateTask_NotFound(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	title := "x"
	if _, err := store.UpdateTask(userID, "no-such-id", TaskUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteTask(t *testing.T) {
	store := setupTestStore(t)
	userID := createTestUser(t, store, "alice@example.com")

	task, err := store.CreateTask(userID, "doomed", "")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := store.DeleteTask(userID, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetTask(userID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteTask(userID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}
