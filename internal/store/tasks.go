package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

// Task is a single todo item owned by exactly one user.
type Task struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StatusFilter selects which tasks ListTasks returns.
type StatusFilter string

const (
	FilterAll        StatusFilter = "all"
	FilterCompleted  StatusFilter = "completed"
	FilterIncomplete StatusFilter = "incomplete"
)

// ParseStatusFilter maps a request string to a StatusFilter.
// Empty input means "all".
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch StatusFilter(s) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterCompleted:
		return FilterCompleted, nil
	case FilterIncomplete:
		return FilterIncomplete, nil
	default:
		return FilterAll, fmt.Errorf("%w: unknown status filter %q", ErrValidation, s)
	}
}

// TaskUpdate describes a partial task mutation. Nil fields are left
// unchanged.
type TaskUpdate struct {
	Title       *string
	Description *string
	Completed   *bool
}

func validateTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n < TitleMinLen || n > TitleMaxLen {
		return fmt.Errorf("%w: title must be %d-%d characters", ErrValidation, TitleMinLen, TitleMaxLen)
	}
	return nil
}

// CreateTask inserts a task for userID and returns it.
func (s *Store) CreateTask(userID, title, description string) (*Task, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Task{
		ID:          newID(),
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(`
		INSERT INTO tasks (id, user_id, title, description, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, FALSE, ?, ?)
	`, t.ID, t.UserID, t.Title, nullable(t.Description), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	return t, nil
}

// ListTasks returns userID's tasks, optionally filtered by completion
// status. Never mutates state.
func (s *Store) ListTasks(userID string, filter StatusFilter) ([]*Task, error) {
	q := `
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM tasks WHERE user_id = ?`
	switch filter {
	case FilterCompleted:
		q += ` AND completed = TRUE`
	case FilterIncomplete:
		q += ` AND completed = FALSE`
	}
	q += ` ORDER BY created_at ASC`

	rows, err := s.db.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// GetTask returns the task with id owned by userID, or ErrNotFound.
// A task belonging to a different user is indistinguishable from a
// missing one.
func (s *Store) GetTask(userID, id string) (*Task, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM tasks WHERE user_id = ? AND id = ?
	`, userID, id)
	return scanTask(row)
}

// FindTasksByTitle returns userID's tasks whose title contains substr,
// case-insensitively. Used by the tool layer's disambiguation policy.
func (s *Store) FindTasksByTitle(userID, substr string) ([]*Task, error) {
	// instr avoids LIKE wildcard injection from user-supplied substrings.
	rows, err := s.db.Query(`
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM tasks
		WHERE user_id = ? AND instr(lower(title), lower(?)) > 0
		ORDER BY created_at ASC
	`, userID, substr)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// UpdateTask applies upd to the task with id owned by userID and
// returns the updated row. The whole mutation is a single transaction;
// a commit failure leaves the row untouched.
func (s *Store) UpdateTask(userID, id string, upd TaskUpdate) (*Task, error) {
	if upd.Title != nil {
		if err := validateTitle(*upd.Title); err != nil {
			return nil, err
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	t, err := scanTask(tx.QueryRow(`
		SELECT id, user_id, title, description, completed, created_at, updated_at
		FROM tasks WHERE user_id = ? AND id = ?
	`, userID, id))
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	t.UpdatedAt = time.Now().UTC()

	_, err = tx.Exec(`
		UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE user_id = ? AND id = ?
	`, t.Title, nullable(t.Description), t.Completed, t.UpdatedAt, userID, id)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return t, nil
}

// DeleteTask removes the task with id owned by userID.
// Returns ErrNotFound if no owned row matched.
func (s *Store) DeleteTask(userID, id string) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTask(row *sql.Row) (*Task, error) {
	var t Task
	var desc sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Description = desc.String
	return &t, nil
}

func scanTasks(rows *sql.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		var t Task
		var desc sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title, &desc, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Description = desc.String
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// nullable maps "" to NULL so optional text columns stay NULL rather
// than accumulating empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
