package task

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Task is one tracked item. Scheduled carries day precision; Category and
// Tags are organizational metadata, where an empty Category means
// uncategorized and tags are stored without their # prefix.
type Task struct {
	ID        int
	Title     string
	Done      bool
	Scheduled *time.Time
	Category  string
	Tags      []string
}

// New constructs an unscheduled, incomplete task with no ID assigned.
func New(title string) Task {
	return Task{Title: title}
}

// AddTag appends a tag if not already present. A leading # is stripped.
func (t *Task) AddTag(tag string) {
	tag = strings.TrimPrefix(tag, "#")
	for _, existing := range t.Tags {
		if existing == tag {
			return
		}
	}
	t.Tags = append(t.Tags, tag)
}

// RemoveTag deletes a tag and reports whether it was present.
func (t *Task) RemoveTag(tag string) bool {
	tag = strings.TrimPrefix(tag, "#")
	for i, existing := range t.Tags {
		if existing == tag {
			t.Tags = append(t.Tags[:i], t.Tags[i+1:]...)
			return true
		}
	}
	return false
}

// Overdue reports whether the task is scheduled before today and not done.
func (t *Task) Overdue() bool {
	if t.Scheduled == nil || t.Done {
		return false
	}
	return dateOf(*t.Scheduled).Before(dateOf(time.Now()))
}

func dateOf(t time.Time) time.Time {
	year, month, day := t.Local().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// NotFoundError reports a lookup for a task ID that does not exist.
type NotFoundError struct {
	ID int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %d not found", e.ID)
}

// Collection holds tasks indexed by ID. It is pure in-memory state; the
// storage package handles persistence.
type Collection struct {
	tasks  map[int]*Task
	nextID int
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{tasks: map[int]*Task{}, nextID: 1}
}

// Add inserts a new task and returns its assigned ID. IDs freed by removal
// are reused before new ones are minted.
func (c *Collection) Add(t Task) int {
	id := c.findNextID()
	t.ID = id
	c.tasks[id] = &t
	c.updateNextID()
	return id
}

// Insert places a task that already carries an ID, replacing any existing
// task with that ID.
func (c *Collection) Insert(t Task) {
	if t.ID >= c.nextID {
		c.nextID = t.ID + 1
	}
	c.tasks[t.ID] = &t
}

func (c *Collection) findNextID() int {
	for id := 1; id <= c.nextID; id++ {
		if _, taken := c.tasks[id]; !taken {
			return id
		}
	}
	return c.nextID
}

func (c *Collection) updateNextID() {
	max := 0
	for id := range c.tasks {
		if id > max {
			max = id
		}
	}
	c.nextID = max + 1
}

// Get returns the task with the given ID or a NotFoundError.
func (c *Collection) Get(id int) (*Task, error) {
	t, ok := c.tasks[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return t, nil
}

// Remove deletes a task and returns it, or a NotFoundError.
func (c *Collection) Remove(id int) (Task, error) {
	t, ok := c.tasks[id]
	if !ok {
		return Task{}, &NotFoundError{ID: id}
	}
	delete(c.tasks, id)
	return *t, nil
}

// Toggle flips a task's completion state and returns the new state.
func (c *Collection) Toggle(id int) (bool, error) {
	t, err := c.Get(id)
	if err != nil {
		return false, err
	}
	t.Done = !t.Done
	return t.Done, nil
}

// All returns every task ordered by ID.
func (c *Collection) All() []*Task {
	list := make([]*Task, 0, len(c.tasks))
	for _, t := range c.tasks {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Len reports the number of tasks.
func (c *Collection) Len() int { return len(c.tasks) }

// CountDone reports the number of completed tasks.
func (c *Collection) CountDone() int {
	n := 0
	for _, t := range c.tasks {
		if t.Done {
			n++
		}
	}
	return n
}

// CountOverdue reports the number of overdue tasks.
func (c *Collection) CountOverdue() int {
	n := 0
	for _, t := range c.tasks {
		if t.Overdue() {
			n++
		}
	}
	return n
}

// RemoveDone deletes every completed task and returns how many were removed.
func (c *Collection) RemoveDone() int {
	removed := 0
	for id, t := range c.tasks {
		if t.Done {
			delete(c.tasks, id)
			removed++
		}
	}
	return removed
}

// Reindex renumbers all tasks to sequential IDs starting at 1, preserving
// the existing ID order.
func (c *Collection) Reindex() {
	list := c.All()
	c.tasks = make(map[int]*Task, len(list))
	for i, t := range list {
		t.ID = i + 1
		c.tasks[t.ID] = t
	}
	c.updateNextID()
}

// Categories returns the distinct categories in use, sorted.
func (c *Collection) Categories() []string {
	seen := map[string]bool{}
	for _, t := range c.tasks {
		if t.Category != "" {
			seen[t.Category] = true
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Tags returns the distinct tags in use, sorted.
func (c *Collection) Tags() []string {
	seen := map[string]bool{}
	for _, t := range c.tasks {
		for _, tag := range t.Tags {
			seen[tag] = true
		}
	}
	out := make([]string, 0, len(seen))
	for tag := range seen {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// InCategory returns the tasks in the given category, ordered by ID. An
// empty category selects uncategorized tasks.
func (c *Collection) InCategory(category string) []*Task {
	var out []*Task
	for _, t := range c.All() {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// WithTag returns the tasks carrying the given tag, ordered by ID.
func (c *Collection) WithTag(tag string) []*Task {
	tag = strings.TrimPrefix(tag, "#")
	var out []*Task
	for _, t := range c.All() {
		for _, existing := range t.Tags {
			if existing == tag {
				out = append(out, t)
				break
			}
		}
	}
	return out
}
