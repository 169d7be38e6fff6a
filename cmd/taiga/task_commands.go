package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"taiga/internal/storage"
	"taiga/internal/task"
)

func parseTaskID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task ID %q", raw)
	}
	return id, nil
}

func loadTasks(ctx *commandContext) (*storage.Markdown, *task.Collection, error) {
	store, err := ctx.storageValue()
	if err != nil {
		return nil, nil, err
	}
	collection, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	return store, collection, nil
}

// confirm prompts on stdout and reads a y/N answer from the command input.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", prompt)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	return strings.EqualFold(strings.TrimSpace(line), "y"), nil
}

func newAddCommand(ctx *commandContext) *cobra.Command {
	var onDate string
	var dateFlag string
	var category string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			t := task.New(strings.Join(args, " "))
			t.Category = strings.TrimSpace(category)
			for _, tag := range tags {
				t.AddTag(tag)
			}

			// --on takes precedence over --date.
			dateInput := onDate
			if dateInput == "" {
				dateInput = dateFlag
			}
			if dateInput != "" {
				when, err := task.ParseDate(dateInput)
				if err != nil {
					return err
				}
				t.Scheduled = &when
			}

			collection.Add(t)
			if err := store.Save(collection); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if t.Scheduled != nil {
				fmt.Fprintf(out, "Task added: %s (scheduled: %s)\n", t.Title, t.Scheduled.Format("2006-01-02"))
			} else {
				fmt.Fprintf(out, "Task added: %s\n", t.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&onDate, "on", "", "Schedule the task on a specific date")
	cmd.Flags().StringVar(&dateFlag, "date", "", "Schedule the task on a specific date (alias for --on)")
	cmd.Flags().StringVar(&category, "category", "", "Category for the task")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Tags for the task (repeatable)")
	return cmd
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		checked     bool
		unchecked   bool
		scheduled   bool
		unscheduled bool
		overdue     bool
		search      string
		sortBy      string
		reverse     bool
		category    string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks with filtering and sorting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			filter := task.Filter{
				OverdueOnly: overdue,
				Search:      search,
				Sort:        task.SortFromString(sortBy),
				Reverse:     reverse,
				Tags:        tags,
			}
			if checked {
				filter.Done = boolPtr(true)
			} else if unchecked {
				filter.Done = boolPtr(false)
			}
			if scheduled {
				filter.Scheduled = boolPtr(true)
			} else if unscheduled {
				filter.Scheduled = boolPtr(false)
			}
			if category != "" {
				want := category
				if strings.EqualFold(want, "none") {
					want = ""
				}
				filter.Category = &want
			}

			tasks := filter.Apply(collection)
			out := cmd.OutOrStdout()
			if len(tasks) == 0 {
				fmt.Fprintln(out, "No tasks found.")
				return nil
			}

			rows := make([][]string, 0, len(tasks))
			done := 0
			overdueCount := 0
			for _, t := range tasks {
				if t.Done {
					done++
				}
				if t.Overdue() {
					overdueCount++
				}
				rows = append(rows, taskRow(t))
			}

			fmt.Fprintln(out, renderTable(
				[]string{"ID", "", "Title", "Scheduled", "Category", "Tags"},
				rows,
				[]columnAlignment{alignRight},
			))
			fmt.Fprintf(out, "%d task(s), %d done, %d overdue\n", len(tasks), done, overdueCount)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checked, "checked", false, "Show only completed tasks")
	cmd.Flags().BoolVar(&unchecked, "unchecked", false, "Show only incomplete tasks")
	cmd.Flags().BoolVar(&scheduled, "scheduled", false, "Show only tasks with scheduled dates")
	cmd.Flags().BoolVar(&unscheduled, "unscheduled", false, "Show only tasks without scheduled dates")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "Show only overdue tasks")
	cmd.Flags().StringVar(&search, "search", "", "Filter tasks containing text (case-insensitive)")
	cmd.Flags().StringVar(&sortBy, "sort", "id", "Sort tasks by field (id, date, name, status)")
	cmd.Flags().BoolVar(&reverse, "reverse", false, "Reverse sort order")
	cmd.Flags().StringVar(&category, "category", "", "Filter by category (use 'none' for uncategorized)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Filter by tag (repeatable, all must match)")
	return cmd
}

func taskRow(t *task.Task) []string {
	mark := "[ ]"
	if t.Done {
		mark = "[x]"
	}
	scheduled := ""
	if t.Scheduled != nil {
		scheduled = task.FormatDate(*t.Scheduled, true)
	}
	return []string{
		strconv.Itoa(t.ID),
		mark,
		t.Title,
		scheduled,
		t.Category,
		strings.Join(t.Tags, " "),
	}
}

func boolPtr(v bool) *bool { return &v }

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Toggle task completion status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			done, err := collection.Toggle(id)
			if err != nil {
				return err
			}
			t, _ := collection.Get(id)
			state := "open"
			if done {
				state = "done"
			}
			if err := store.Save(collection); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked task #%d as %s: %s\n", id, state, t.Title)
			return nil
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			removed, err := collection.Remove(id)
			if err != nil {
				return err
			}
			if err := store.Save(collection); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", removed.Title)
			return nil
		},
	}
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var name string
	var date string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's name and/or scheduled date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && date == "" {
				return fmt.Errorf("at least one of --name or --date must be provided")
			}
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			t, err := collection.Get(id)
			if err != nil {
				return err
			}
			if name != "" {
				t.Title = name
			}
			if date != "" {
				if strings.EqualFold(date, "none") {
					t.Scheduled = nil
				} else {
					when, err := task.ParseDate(date)
					if err != nil {
						return err
					}
					t.Scheduled = &when
				}
			}

			if err := store.Save(collection); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Updated task #%d: %s\n", t.ID, t.Title)
			if t.Scheduled != nil {
				fmt.Fprintf(out, "  Scheduled: %s\n", t.Scheduled.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New task name")
	cmd.Flags().StringVar(&date, "date", "", "New scheduled date (use 'none' to clear)")
	return cmd
}

func newRescheduleCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule <id> <date>...",
		Short: "Reschedule a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			t, err := collection.Get(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dateInput := strings.Join(args[1:], " ")
			if strings.EqualFold(dateInput, "none") {
				t.Scheduled = nil
				fmt.Fprintf(out, "Cleared schedule for task #%d: %s\n", t.ID, t.Title)
			} else {
				when, err := task.ParseDate(dateInput)
				if err != nil {
					return err
				}
				t.Scheduled = &when
				fmt.Fprintf(out, "Rescheduled task #%d to %s: %s\n", t.ID, when.Format("2006-01-02"), t.Title)
			}
			return store.Save(collection)
		},
	}
}

func newRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>...",
		Short: "Rename a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			t, err := collection.Get(id)
			if err != nil {
				return err
			}
			oldName := t.Title
			t.Title = strings.Join(args[1:], " ")

			if err := store.Save(collection); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Renamed task #%d:\n", id)
			fmt.Fprintf(out, "  From: %s\n", oldName)
			fmt.Fprintf(out, "  To:   %s\n", t.Title)
			return nil
		},
	}
}

func newMoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <category>",
		Short: "Move a task to a different category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			t, err := collection.Get(id)
			if err != nil {
				return err
			}
			category := args[1]
			if strings.EqualFold(category, "none") {
				category = ""
			}
			t.Category = category

			if err := store.Save(collection); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if category == "" {
				fmt.Fprintf(out, "Moved task #%d to Uncategorized\n", id)
			} else {
				fmt.Fprintf(out, "Moved task #%d to %s\n", id, category)
			}
			return nil
		},
	}
}

func newTagCommand(ctx *commandContext) *cobra.Command {
	tagCmd := &cobra.Command{
		Use:   "tag",
		Short: "Add or remove tags on a task",
	}

	tagCmd.AddCommand(&cobra.Command{
		Use:   "add <id> <tag>",
		Short: "Add a tag to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}
			t, err := collection.Get(id)
			if err != nil {
				return err
			}
			t.AddTag(args[1])
			if err := store.Save(collection); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tagged task #%d with #%s\n", id, strings.TrimPrefix(args[1], "#"))
			return nil
		},
	})

	tagCmd.AddCommand(&cobra.Command{
		Use:   "remove <id> <tag>",
		Short: "Remove a tag from a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}
			t, err := collection.Get(id)
			if err != nil {
				return err
			}
			if !t.RemoveTag(args[1]) {
				return fmt.Errorf("task #%d has no tag #%s", id, strings.TrimPrefix(args[1], "#"))
			}
			if err := store.Save(collection); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed tag #%s from task #%d\n", strings.TrimPrefix(args[1], "#"), id)
			return nil
		},
	})

	return tagCmd
}

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List all categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			categories := collection.Categories()
			if len(categories) == 0 {
				fmt.Fprintln(out, "No categories in use.")
				return nil
			}
			for _, category := range categories {
				fmt.Fprintf(out, "%s (%d)\n", category, len(collection.InCategory(category)))
			}
			return nil
		},
	}
}

func newTagsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			tags := collection.Tags()
			if len(tags) == 0 {
				fmt.Fprintln(out, "No tags in use.")
				return nil
			}
			for _, tag := range tags {
				fmt.Fprintf(out, "#%s (%d)\n", tag, len(collection.WithTag(tag)))
			}
			return nil
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var checked bool
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !checked {
				return fmt.Errorf("use --checked to remove completed tasks")
			}
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			count := collection.CountDone()
			if count == 0 {
				fmt.Fprintln(out, "No completed tasks to remove.")
				return nil
			}
			if !force {
				ok, err := confirm(cmd, fmt.Sprintf("Remove %d completed task(s)?", count))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			removed := collection.RemoveDone()
			if err := store.Save(collection); err != nil {
				return err
			}
			fmt.Fprintf(out, "Removed %d completed task(s).\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&checked, "checked", false, "Remove only completed tasks")
	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func newRecoverCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Recover tasks from the backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.storageValue()
			if err != nil {
				return err
			}
			if !store.BackupExists() {
				return fmt.Errorf("no backup file found")
			}

			out := cmd.OutOrStdout()
			if !force {
				ok, err := confirm(cmd, "Restore tasks from backup? Current tasks will be replaced.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			recovered, err := store.Recover()
			if err != nil {
				return err
			}
			if err := store.Save(recovered); err != nil {
				return err
			}
			fmt.Fprintf(out, "Recovered %d tasks from backup.\n", recovered.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}

func newReindexCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Renumber all tasks sequentially",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, collection, err := loadTasks(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !force {
				ok, err := confirm(cmd, "Renumber all task IDs sequentially? This cannot be undone.")
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Cancelled.")
					return nil
				}
			}

			collection.Reindex()
			if err := store.Save(collection); err != nil {
				return err
			}
			fmt.Fprintf(out, "Reindexed %d tasks.\n", collection.Len())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip confirmation prompt")
	return cmd
}
