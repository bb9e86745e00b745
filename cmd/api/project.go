package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hihikaAAa/duty-bot/internal/storage/sqlite"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects and the chats they are bound to",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <chat_id>",
		Short: "Bind a new project to a Telegram chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chatID, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid chat id %q", args[1])
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			id, err := db.CreateProject(cmd.Context(), args[0], chatID)
			if err != nil {
				return err
			}
			fmt.Printf("%s project %d %q bound to chat %d\n", color.New(color.FgGreen).Sprint("CREATED"), id, args[0], chatID)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return listProjects(cmd.Context(), db)
		},
	})
	return cmd
}

func listProjects(ctx context.Context, db *sqlite.DB) error {
	ps, err := db.ListProjects(ctx)
	if err != nil {
		return err
	}
	if len(ps) == 0 {
		fmt.Println(color.New(color.FgYellow).Sprint("No projects yet."))
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCHAT")
	for _, p := range ps {
		fmt.Fprintf(w, "%d\t%s\t%d\n", p.ID, p.Name, p.ChatID)
	}
	return w.Flush()
}

func dutiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "duties <project_id>",
		Short: "Show every duty stored for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}
			db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			p, err := db.GetProject(cmd.Context(), projectID)
			if err != nil {
				return fmt.Errorf("project %d: %w", projectID, err)
			}
			ds, err := db.ListDuties(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			fmt.Printf("%s %s\n", color.New(color.FgCyan).Sprint("Project"), p.Name)
			if len(ds) == 0 {
				fmt.Println(color.New(color.FgYellow).Sprint("No duties."))
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTART\tEND\tASSIGNEES")
			for _, d := range ds {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.ID, d.StartDate, d.EndDate, handles(d.Assignees))
			}
			return w.Flush()
		},
	}
}

func handles(hs []string) string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = "@" + h
	}
	return strings.Join(out, ", ")
}
