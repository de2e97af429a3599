package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/deltatask/deltatask/internal/store"
	"github.com/deltatask/deltatask/internal/task"
	"github.com/deltatask/deltatask/internal/ui"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a new task",
	Long: `Create a task in the database and project it into the vault.

Deadlines accept an ISO date (2025-03-01) or natural language
("tomorrow", "next friday").`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		deadline, err := parseDeadline(addFlags.deadline)
		if err != nil {
			return err
		}

		res, err := a.engine.CreateTask(cmd.Context(), task.Draft{
			Title:       args[0],
			Description: addFlags.description,
			Deadline:    deadline,
			Urgency:     addFlags.urgency,
			Effort:      addFlags.effort,
			ParentID:    addFlags.parent,
			Tags:        addFlags.tags,
		})
		if err != nil {
			return err
		}

		fmt.Printf("%s Created task %s\n", ui.RenderPass("✓"), ui.RenderMuted(res.ID))
		warnProjection(res.Projection.Errors)
		return nil
	},
}

var addFlags struct {
	description string
	deadline    string
	urgency     int
	effort      int
	parent      string
	tags        []string
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks ordered by deadline (soonest first, no deadline last),
then urgency and effort. Completed tasks are hidden unless --all is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		filter := store.Filter{
			IncludeCompleted: listFlags.all,
			Tags:             listFlags.tags,
		}
		if cmd.Flags().Changed("parent") {
			filter.ParentID = &listFlags.parent
		}

		tasks, err := a.engine.ListTasks(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}
		for _, t := range tasks {
			fmt.Println(ui.TaskLine(t))
		}
		return nil
	},
}

var listFlags struct {
	all    bool
	parent string
	tags   []string
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		t, err := a.engine.GetTask(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s\n", ui.RenderAccent(t.Title))
		fmt.Printf("  ID:       %s\n", ui.RenderMuted(t.ID))
		if t.Description != "" {
			fmt.Printf("  Notes:    %s\n", t.Description)
		}
		if t.Deadline != "" {
			fmt.Printf("  Deadline: %s\n", t.Deadline)
		}
		fmt.Printf("  %s, effort %d\n", ui.Urgency(t.Urgency), t.Effort)
		if t.Completed {
			fmt.Printf("  Status:   %s\n", ui.RenderPass("completed"))
		}
		if t.ParentID != "" {
			fmt.Printf("  Parent:   %s\n", ui.RenderMuted(t.ParentID))
		}
		if len(t.Tags) > 0 {
			fmt.Printf("  Tags:     #%s\n", strings.Join(t.Tags, " #"))
		}
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update task fields",
	Long: `Apply a partial update. Only the flags you pass change; everything
else keeps its value. Pass an empty --deadline or --parent to clear it.
--tag replaces the full tag set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		var upd task.Update
		flags := cmd.Flags()
		if flags.Changed("title") {
			upd.Title = &updateFlags.title
		}
		if flags.Changed("description") {
			upd.Description = &updateFlags.description
		}
		if flags.Changed("deadline") {
			deadline, err := parseDeadline(updateFlags.deadline)
			if err != nil {
				return err
			}
			upd.Deadline = &deadline
		}
		if flags.Changed("urgency") {
			upd.Urgency = &updateFlags.urgency
		}
		if flags.Changed("effort") {
			upd.Effort = &updateFlags.effort
		}
		if flags.Changed("parent") {
			upd.ParentID = &updateFlags.parent
		}
		if flags.Changed("tag") {
			upd.Tags = &updateFlags.tags
		}
		if upd.Empty() {
			return fmt.Errorf("nothing to update: pass at least one field flag")
		}

		res, err := a.engine.UpdateTask(cmd.Context(), args[0], upd)
		if err != nil {
			return err
		}
		fmt.Printf("%s Updated %s\n", ui.RenderPass("✓"), ui.RenderMuted(args[0]))
		warnProjection(res.Projection.Errors)
		return nil
	},
}

var updateFlags struct {
	title       string
	description string
	deadline    string
	urgency     int
	effort      int
	parent      string
	tags        []string
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.engine.CompleteTask(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s Completed %s\n", ui.RenderPass("✓"), res.Task.Title)
		warnProjection(res.Projection.Errors)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a task",
	Long: `Delete a task. By default its direct children are promoted to
top-level tasks; with --cascade every descendant is deleted too.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.engine.DeleteTask(cmd.Context(), args[0], deleteCascade)
		if err != nil {
			return err
		}
		if len(res.Deleted) > 1 {
			fmt.Printf("%s Deleted %d tasks\n", ui.RenderPass("✓"), len(res.Deleted))
		} else {
			fmt.Printf("%s Deleted %s\n", ui.RenderPass("✓"), ui.RenderMuted(args[0]))
		}
		warnProjection(res.Projection.Errors)
		return nil
	},
}

var deleteCascade bool

var subtaskCmd = &cobra.Command{
	Use:   "subtask <parent-id> <title>...",
	Short: "Create subtasks under a parent",
	Long: `Create one or more subtasks under an existing task. Each title
argument becomes one child; the parent document's Subtasks section is
linked automatically.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		drafts := make([]task.Draft, 0, len(args)-1)
		for _, title := range args[1:] {
			drafts = append(drafts, task.Draft{Title: title})
		}

		results, err := a.engine.CreateSubtasks(cmd.Context(), args[0], drafts)
		if err != nil {
			return err
		}
		for _, res := range results {
			fmt.Printf("%s Created subtask %s\n", ui.RenderPass("✓"), ui.RenderMuted(res.ID))
			warnProjection(res.Projection.Errors)
		}
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <text>",
	Short: "Search tasks by title, description, or tag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		tasks, err := a.engine.Search(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			fmt.Println("No matching tasks.")
			return nil
		}
		for _, t := range tasks {
			fmt.Println(ui.TaskLine(t))
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show task statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.engine.Statistics(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println(ui.RenderAccent("Task Statistics"))
		fmt.Printf("  Total:      %d\n", stats.Total)
		fmt.Printf("  Completed:  %d (%.1f%%)\n", stats.Completed, stats.CompletionRate)
		fmt.Printf("  Due in 7d:  %d\n", stats.UpcomingDeadlines)
		fmt.Println("  By urgency:")
		for level := 5; level >= 1; level-- {
			fmt.Printf("    %s: %d\n", ui.Urgency(level), stats.ByUrgency[level])
		}
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all tasks and rebuild an empty vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			return fmt.Errorf("refusing to destroy all data without --force")
		}
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.engine.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("%s Database and vault reset\n", ui.RenderPass("✓"))
		return nil
	},
}

var resetForce bool

func init() {
	addCmd.Flags().StringVarP(&addFlags.description, "description", "d", "", "task notes")
	addCmd.Flags().StringVar(&addFlags.deadline, "deadline", "", "deadline (ISO date or natural language)")
	addCmd.Flags().IntVarP(&addFlags.urgency, "urgency", "u", 1, "urgency 1-5")
	addCmd.Flags().IntVarP(&addFlags.effort, "effort", "e", 1, "effort in Fibonacci points (1,2,3,5,8,13,21)")
	addCmd.Flags().StringVar(&addFlags.parent, "parent", "", "parent task id")
	addCmd.Flags().StringSliceVarP(&addFlags.tags, "tag", "t", nil, "tag (repeatable)")

	listCmd.Flags().BoolVarP(&listFlags.all, "all", "a", false, "include completed tasks")
	listCmd.Flags().StringVar(&listFlags.parent, "parent", "", "only children of this task (empty for roots)")
	listCmd.Flags().StringSliceVarP(&listFlags.tags, "tag", "t", nil, "only tasks with this tag (repeatable)")

	updateCmd.Flags().StringVar(&updateFlags.title, "title", "", "new title")
	updateCmd.Flags().StringVarP(&updateFlags.description, "description", "d", "", "new notes")
	updateCmd.Flags().StringVar(&updateFlags.deadline, "deadline", "", "new deadline (empty clears)")
	updateCmd.Flags().IntVarP(&updateFlags.urgency, "urgency", "u", 0, "new urgency 1-5")
	updateCmd.Flags().IntVarP(&updateFlags.effort, "effort", "e", 0, "new effort")
	updateCmd.Flags().StringVar(&updateFlags.parent, "parent", "", "new parent id (empty clears)")
	updateCmd.Flags().StringSliceVarP(&updateFlags.tags, "tag", "t", nil, "replacement tag set (repeatable)")

	deleteCmd.Flags().BoolVar(&deleteCascade, "cascade", false, "delete all descendants too")

	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm destroying all data")

	rootCmd.AddCommand(addCmd, listCmd, showCmd, updateCmd, doneCmd, deleteCmd,
		subtaskCmd, searchCmd, statsCmd, resetCmd)
}

// parseDeadline accepts an ISO calendar date directly and falls back to
// natural-language parsing ("tomorrow", "next friday").
func parseDeadline(input string) (string, error) {
	if input == "" {
		return "", nil
	}
	if _, err := time.Parse(task.DeadlineLayout, input); err == nil {
		return input, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(input, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to parse deadline %q: %w", input, err)
	}
	if r == nil {
		return "", fmt.Errorf("could not understand deadline %q", input)
	}
	return r.Time.Format(task.DeadlineLayout), nil
}

func warnProjection(errs []string) {
	for _, msg := range errs {
		fmt.Printf("%s vault: %s\n", ui.RenderWarn("⚠"), msg)
	}
}
