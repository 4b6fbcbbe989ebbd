package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/taskgrid/taskgrid/board"
)

// Store handles database operations for tasks, columns and users.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const taskColumns = `id, title, state, assigned_to_id, col_id, grid_row,
	reference_url, technology, points, serial_number, priority, clickup_sync, locked`

func scanTask(row interface{ Scan(...any) error }) (board.Task, error) {
	var t board.Task
	err := row.Scan(&t.ID, &t.Title, &t.State, &t.AssignedToID, &t.ColID, &t.Row,
		&t.ReferenceURL, &t.Technology, &t.Points, &t.SerialNumber, &t.Priority, &t.ClickupSync, &t.Locked)
	if err != nil {
		return board.Task{}, err
	}
	t.SerialID = fmt.Sprintf("T-%d", t.SerialNumber)
	return t, nil
}

// ListTasks returns tasks matching the query in creation order.
func (s *Store) ListTasks(q board.TaskQuery) ([]board.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks"
	var conds []string
	var args []any

	if len(q.States) > 0 {
		placeholders := make([]string, len(q.States))
		for i, st := range q.States {
			placeholders[i] = "?"
			args = append(args, string(st))
		}
		conds = append(conds, fmt.Sprintf("state IN (%s)", strings.Join(placeholders, ", ")))
	}
	if q.AssignedTo != "" {
		conds = append(conds, "assigned_to_id = ?")
		args = append(args, q.AssignedTo)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY serial_number"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []board.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// GetTask retrieves a single task by id.
func (s *Store) GetTask(id string) (board.Task, error) {
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return board.Task{}, fmt.Errorf("task %s: %w", id, board.ErrNotFound)
	}
	if err != nil {
		return board.Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// GetTaskBySerial retrieves a task by its human-facing serial id ("T-42").
func (s *Store) GetTaskBySerial(serialID string) (board.Task, error) {
	var n int
	if _, err := fmt.Sscanf(serialID, "T-%d", &n); err != nil {
		return board.Task{}, fmt.Errorf("task %s: %w", serialID, board.ErrNotFound)
	}
	row := s.db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE serial_number = ?", n)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return board.Task{}, fmt.Errorf("task %s: %w", serialID, board.ErrNotFound)
	}
	if err != nil {
		return board.Task{}, fmt.Errorf("failed to query task: %w", err)
	}
	return t, nil
}

// CreateTask inserts a new task. The id and serial number are generated here;
// new tasks always start in the "new" state with no assignee.
func (s *Store) CreateTask(n board.NewTask) (board.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return board.Task{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var serial int
	if err := tx.QueryRow("SELECT COALESCE(MAX(serial_number), 0) + 1 FROM tasks").Scan(&serial); err != nil {
		return board.Task{}, fmt.Errorf("failed to allocate serial number: %w", err)
	}

	t := board.Task{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(n.Title),
		State:        board.StateNew,
		ColID:        n.ColID,
		Row:          n.Row,
		SerialNumber: serial,
		SerialID:     fmt.Sprintf("T-%d", serial),
	}

	_, err = tx.Exec(`INSERT INTO tasks (id, title, state, col_id, grid_row, serial_number)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, string(t.State), t.ColID, t.Row, t.SerialNumber)
	if err != nil {
		return board.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return board.Task{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return t, nil
}

// UpdateTask applies a partial update and returns the stored task.
// Last write wins; there is no version check.
func (s *Store) UpdateTask(id string, p board.TaskPatch) (board.Task, error) {
	var sets []string
	var args []any

	add := func(col string, val any) {
		sets = append(sets, col+" = ?")
		args = append(args, val)
	}

	if p.Title != nil {
		add("title", strings.TrimSpace(*p.Title))
	}
	if p.State != nil {
		add("state", string(*p.State))
	}
	if p.AssignedToID != nil {
		add("assigned_to_id", *p.AssignedToID)
	}
	if p.ColID != nil {
		add("col_id", *p.ColID)
	}
	if p.Row != nil {
		add("grid_row", *p.Row)
	}
	if p.ReferenceURL != nil {
		add("reference_url", *p.ReferenceURL)
	}
	if p.Technology != nil {
		add("technology", string(*p.Technology))
	}
	if p.Points != nil {
		add("points", *p.Points)
	}
	if p.Priority != nil {
		add("priority", *p.Priority)
	}
	if p.Locked != nil {
		add("locked", *p.Locked)
	}

	if len(sets) == 0 {
		return s.GetTask(id)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	res, err := s.db.Exec("UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return board.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return board.Task{}, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return board.Task{}, fmt.Errorf("task %s: %w", id, board.ErrNotFound)
	}
	return s.GetTask(id)
}

// SetTaskSynced flags a task as mirrored into ClickUp.
func (s *Store) SetTaskSynced(id string) error {
	res, err := s.db.Exec("UPDATE tasks SET clickup_sync = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to flag task as synced: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, board.ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task permanently.
func (s *Store) DeleteTask(id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task %s: %w", id, board.ErrNotFound)
	}
	return nil
}

// ListColumns returns all columns in stored order. Callers that need display
// order run the result through board.SortColumns.
func (s *Store) ListColumns() ([]board.Column, error) {
	rows, err := s.db.Query("SELECT id, title, ord, clickup_list_id FROM columns ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	cols := []board.Column{}
	for rows.Next() {
		var c board.Column
		var ord sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Title, &ord, &c.ClickupListID); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		if ord.Valid {
			o := int(ord.Int64)
			c.Order = &o
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// GetColumn retrieves a single column by id.
func (s *Store) GetColumn(id string) (board.Column, error) {
	var c board.Column
	var ord sql.NullInt64
	err := s.db.QueryRow("SELECT id, title, ord, clickup_list_id FROM columns WHERE id = ?", id).
		Scan(&c.ID, &c.Title, &ord, &c.ClickupListID)
	if err == sql.ErrNoRows {
		return board.Column{}, fmt.Errorf("column %s: %w", id, board.ErrNotFound)
	}
	if err != nil {
		return board.Column{}, fmt.Errorf("failed to query column: %w", err)
	}
	if ord.Valid {
		o := int(ord.Int64)
		c.Order = &o
	}
	return c, nil
}

// CreateColumn inserts a new column with a generated id.
func (s *Store) CreateColumn(c board.Column) (board.Column, error) {
	c.ID = uuid.NewString()
	var ord sql.NullInt64
	if c.Order != nil {
		ord = sql.NullInt64{Int64: int64(*c.Order), Valid: true}
	}
	_, err := s.db.Exec("INSERT INTO columns (id, title, ord, clickup_list_id) VALUES (?, ?, ?, ?)",
		c.ID, strings.TrimSpace(c.Title), ord, c.ClickupListID)
	if err != nil {
		return board.Column{}, fmt.Errorf("failed to insert column: %w", err)
	}
	return c, nil
}

// UpdateColumn applies a partial update and returns the stored column.
func (s *Store) UpdateColumn(id string, p board.ColumnPatch) (board.Column, error) {
	var sets []string
	var args []any

	if p.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, strings.TrimSpace(*p.Title))
	}
	if p.Order != nil {
		sets = append(sets, "ord = ?")
		args = append(args, *p.Order)
	}
	if p.ClickupListID != nil {
		sets = append(sets, "clickup_list_id = ?")
		args = append(args, *p.ClickupListID)
	}

	if len(sets) == 0 {
		return s.GetColumn(id)
	}

	args = append(args, id)
	res, err := s.db.Exec("UPDATE columns SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return board.Column{}, fmt.Errorf("failed to update column: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return board.Column{}, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return board.Column{}, fmt.Errorf("column %s: %w", id, board.ErrNotFound)
	}
	return s.GetColumn(id)
}

// DeleteColumn removes a column. Tasks keep their col_id and show up as
// unplaced until an admin moves them.
func (s *Store) DeleteColumn(id string) error {
	res, err := s.db.Exec("DELETE FROM columns WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("column %s: %w", id, board.ErrNotFound)
	}
	return nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers() ([]board.User, error) {
	rows, err := s.db.Query("SELECT id, external_id, name, avatar, admin, points, role FROM users ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []board.User{}
	for rows.Next() {
		var u board.User
		if err := rows.Scan(&u.ID, &u.ExternalID, &u.Name, &u.Avatar, &u.Admin, &u.Points, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUser retrieves a single user by id.
func (s *Store) GetUser(id string) (board.User, error) {
	var u board.User
	err := s.db.QueryRow("SELECT id, external_id, name, avatar, admin, points, role FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.ExternalID, &u.Name, &u.Avatar, &u.Admin, &u.Points, &u.Role)
	if err == sql.ErrNoRows {
		return board.User{}, fmt.Errorf("user %s: %w", id, board.ErrNotFound)
	}
	if err != nil {
		return board.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// GetUserByExternalID looks a user up by the identity the auth layer knows
// them by (their email address).
func (s *Store) GetUserByExternalID(externalID string) (board.User, error) {
	var u board.User
	err := s.db.QueryRow("SELECT id, external_id, name, avatar, admin, points, role FROM users WHERE external_id = ?", externalID).
		Scan(&u.ID, &u.ExternalID, &u.Name, &u.Avatar, &u.Admin, &u.Points, &u.Role)
	if err == sql.ErrNoRows {
		return board.User{}, fmt.Errorf("user %s: %w", externalID, board.ErrNotFound)
	}
	if err != nil {
		return board.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

// CreateUser inserts a new user with a generated id.
func (s *Store) CreateUser(u board.User) (board.User, error) {
	u.ID = uuid.NewString()
	_, err := s.db.Exec("INSERT INTO users (id, external_id, name, avatar, admin, points, role) VALUES (?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.ExternalID, u.Name, u.Avatar, u.Admin, u.Points, u.Role)
	if err != nil {
		return board.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

// UpdateUser applies a partial update and returns the stored user.
func (s *Store) UpdateUser(id string, p board.UserPatch) (board.User, error) {
	var sets []string
	var args []any

	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Admin != nil {
		sets = append(sets, "admin = ?")
		args = append(args, *p.Admin)
	}
	if p.Points != nil {
		sets = append(sets, "points = ?")
		args = append(args, *p.Points)
	}
	if p.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, *p.Role)
	}
	if p.Avatar != nil {
		sets = append(sets, "avatar = ?")
		args = append(args, *p.Avatar)
	}

	if len(sets) == 0 {
		return s.GetUser(id)
	}

	args = append(args, id)
	res, err := s.db.Exec("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return board.User{}, fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return board.User{}, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return board.User{}, fmt.Errorf("user %s: %w", id, board.ErrNotFound)
	}
	return s.GetUser(id)
}
