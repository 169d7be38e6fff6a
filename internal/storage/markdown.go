package storage

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"taiga/internal/logging"
	"taiga/internal/task"
)

var (
	taskLineRe = regexp.MustCompile(`^\[ID:(\d+)\] - \[(.)\] (.*?)(?: \(Scheduled: (.*)\))?$`)
	categoryRe = regexp.MustCompile(`^##\s+(.+)$`)
	tagRe      = regexp.MustCompile(`#(\w+)`)
)

const uncategorizedHeader = "Uncategorized"

// Markdown persists a task collection as a human-editable markdown file.
// Tasks are grouped under "## Category" headers; the file is safe to edit by
// hand and unparseable lines are skipped with a warning rather than
// poisoning the load.
type Markdown struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewMarkdown builds a storage adapter for the given file path.
func NewMarkdown(path string, logger *slog.Logger) *Markdown {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Markdown{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logging.NewComponentLogger(logger, "storage"),
	}
}

// Path returns the backing file path.
func (s *Markdown) Path() string { return s.path }

// Load reads the collection from disk. A missing file yields an empty
// collection. Lines that fail to parse are logged and skipped.
func (s *Markdown) Load() (*task.Collection, error) {
	collection := task.NewCollection()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return collection, nil
		}
		return nil, fmt.Errorf("open tasks file: %w", err)
	}
	defer file.Close()

	category := ""
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := categoryRe.FindStringSubmatch(trimmed); m != nil {
			name := strings.TrimSpace(m[1])
			if strings.EqualFold(name, uncategorizedHeader) {
				name = ""
			}
			category = name
			continue
		}

		t, err := parseTaskLine(line, category)
		if err != nil {
			s.logger.Warn("skipping invalid task line",
				logging.String("line", trimmed),
				logging.Error(err))
			continue
		}
		collection.Insert(t)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read tasks file: %w", err)
	}
	return collection, nil
}

// Save writes the collection back to disk, creating a backup of the current
// file first. A file lock guards against concurrent writers.
func (s *Markdown) Save(collection *task.Collection) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock tasks file: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("release tasks file lock", logging.Error(err))
		}
	}()

	if err := s.Backup(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create tasks directory: %w", err)
	}
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("write tasks file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for i, category := range saveOrder(collection) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		header := category
		if header == "" {
			header = uncategorizedHeader
		}
		fmt.Fprintf(w, "## %s\n", header)
		for _, t := range collection.InCategory(category) {
			fmt.Fprintln(w, formatTaskLine(t))
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write tasks file: %w", err)
	}
	return file.Close()
}

// saveOrder lists the categories to write: named ones alphabetically,
// case-insensitive, with uncategorized last.
func saveOrder(collection *task.Collection) []string {
	categories := collection.Categories()
	sort.Slice(categories, func(i, j int) bool {
		return strings.ToLower(categories[i]) < strings.ToLower(categories[j])
	})
	if len(collection.InCategory("")) > 0 {
		categories = append(categories, "")
	}
	return categories
}

// Backup copies the current tasks file beside itself. Missing file is fine.
func (s *Markdown) Backup() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read tasks file for backup: %w", err)
	}
	if err := os.WriteFile(s.backupPath(), data, 0o644); err != nil {
		return fmt.Errorf("write backup: %w", err)
	}
	return nil
}

// Recover loads the collection from the most recent backup.
func (s *Markdown) Recover() (*task.Collection, error) {
	if !s.BackupExists() {
		return nil, fmt.Errorf("backup file not found at %s", s.backupPath())
	}
	backup := NewMarkdown(s.backupPath(), s.logger)
	return backup.Load()
}

// BackupExists reports whether a backup file is present.
func (s *Markdown) BackupExists() bool {
	_, err := os.Stat(s.backupPath())
	return err == nil
}

func (s *Markdown) backupPath() string {
	return strings.TrimSuffix(s.path, filepath.Ext(s.path)) + ".md.bak"
}

func parseTaskLine(line, category string) (task.Task, error) {
	m := taskLineRe.FindStringSubmatch(line)
	if m == nil {
		return task.Task{}, fmt.Errorf("invalid task format")
	}

	id, err := strconv.Atoi(m[1])
	if err != nil {
		return task.Task{}, fmt.Errorf("invalid task ID %q: %w", m[1], err)
	}

	rawTitle := m[3]
	var tags []string
	for _, tag := range tagRe.FindAllStringSubmatch(rawTitle, -1) {
		tags = append(tags, tag[1])
	}
	title := strings.TrimSpace(tagRe.ReplaceAllString(rawTitle, ""))

	t := task.Task{
		ID:       id,
		Title:    title,
		Done:     m[2] == "x",
		Category: category,
		Tags:     tags,
	}
	if m[4] != "" {
		when, err := time.ParseInLocation("2006-01-02", m[4], time.Local)
		if err == nil {
			t.Scheduled = &when
		}
	}
	return t, nil
}

func formatTaskLine(t *task.Task) string {
	check := " "
	if t.Done {
		check = "x"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[ID:%d] - [%s] %s", t.ID, check, t.Title)
	for _, tag := range t.Tags {
		fmt.Fprintf(&b, " #%s", tag)
	}
	if t.Scheduled != nil {
		fmt.Fprintf(&b, " (Scheduled: %s)", t.Scheduled.Format("2006-01-02"))
	}
	return b.String()
}
