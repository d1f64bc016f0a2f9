package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/SAP-F-2025/exam-desk/internal/controllers"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

func subFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return fs
}

func parseID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return uint(id), nil
}

func optionalBucket(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

func optionalID(v uint) *uint {
	if v == 0 {
		return nil
	}
	return &v
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func (a *app) analyze(ctx context.Context, args []string) error {
	fs := subFlags("analyze")
	save := fs.Bool("save", false, "save every extracted question")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		fmt.Fprintln(a.out, "usage: examdesk analyze [-save] <pdf>")
		return errUsage
	}
	path, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		return err
	}

	c := controllers.NewAnalysisController(a.bridge, a.logger)
	defer c.Close()
	changes := make(chan struct{}, 1)
	c.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	if err := c.Start(ctx, path); err != nil {
		return err
	}

	last := -1
	for {
		snap := c.Snapshot()
		if snap.Current != last && snap.Total > 0 {
			last = snap.Current
			fmt.Fprintf(a.out, "page %d/%d, %d questions\n", snap.Current, snap.Total, len(snap.Questions))
		}
		switch snap.State {
		case controllers.AnalysisFailed:
			return errors.New(snap.Error)
		case controllers.AnalysisFinished:
			fmt.Fprintf(a.out, "extracted %d questions\n", len(snap.Questions))
			if !*save {
				return nil
			}
			saveCtx, cancel := a.withTimeout(ctx)
			defer cancel()
			saved, err := c.SaveAll(saveCtx)
			fmt.Fprintf(a.out, "saved %d questions\n", saved)
			return err
		}
		select {
		case <-changes:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (a *app) library(ctx context.Context, args []string) error {
	fs := subFlags("library")
	search := fs.String("search", "", "search text")
	topic := fs.String("topic", "", "topic filter")
	difficulty := fs.Int("difficulty", 0, "difficulty bucket 1, 3 or 5")
	page := fs.Int("page", 1, "page number")
	del := fs.String("delete", "", "comma separated ids to delete first")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	c := controllers.NewLibraryController(a.bridge, a.logger)
	defer c.Close()

	if *del != "" {
		var ids []uint
		for _, part := range strings.Split(*del, ",") {
			id, err := parseID(strings.TrimSpace(part))
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		if err := c.Delete(ctx, ids); err != nil {
			return err
		}
	}

	if *search != "" {
		if err := c.Search(ctx, *search); err != nil {
			return err
		}
	}
	if *topic != "" {
		if err := c.SetTopic(ctx, *topic); err != nil {
			return err
		}
	}
	if err := c.SetDifficulty(ctx, optionalBucket(*difficulty)); err != nil {
		return err
	}
	if *page > 1 {
		if err := c.SetPage(ctx, *page); err != nil {
			return err
		}
	}

	snap := c.Snapshot()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTOPIC\tDIFFICULTY\tTEXT")
	for _, q := range snap.Questions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", q.ID, deref(q.Topic), models.DifficultyLabel(q.Difficulty), truncate(q.Text, 60))
	}
	w.Flush()
	fmt.Fprintf(a.out, "page %d of %d (%d questions)\n", snap.Page, snap.TotalPages, snap.Total)
	return nil
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func (a *app) generate(ctx context.Context, args []string) error {
	fs := subFlags("generate")
	topic := fs.String("topic", "", "topic filter")
	difficulty := fs.Int("difficulty", 0, "difficulty bucket 1, 3 or 5")
	count := fs.Int("count", 20, "number of questions (1..100)")
	student := fs.Uint("student", 0, "student id; excludes questions the student already solved")
	template := fs.Uint("template", 0, "template id")
	out := fs.String("out", controllers.DefaultExportName, "output PDF path")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	outPath, err := filepath.Abs(*out)
	if err != nil {
		return err
	}

	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	builder := controllers.NewTestBuilderController(a.bridge, a.logger)
	params := models.GenerateTestParams{
		Difficulty: optionalBucket(*difficulty),
		Count:      *count,
		StudentID:  optionalID(uint(*student)),
	}
	if *topic != "" {
		params.Topic = topic
	}
	questions, err := builder.Generate(ctx, params)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "selected %d questions\n", len(questions))

	req, err := builder.ExportRequest(optionalID(uint(*template)))
	if err != nil {
		return err
	}
	result, err := controllers.NewExportController(a.bridge, controllers.StaticDialog(outPath), a.logger).Export(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported %s (test %d)\n", result.OutputPath, result.TestID)
	return nil
}

func (a *app) students(ctx context.Context, args []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	c := controllers.NewStudentsController(a.bridge, a.logger)

	switch {
	case len(args) == 0 || args[0] == "list":
		if err := c.Load(ctx); err != nil {
			return err
		}
	case args[0] == "add" && len(args) > 1:
		if _, err := c.Add(ctx, strings.Join(args[1:], " ")); err != nil {
			return err
		}
	case args[0] == "delete" && len(args) == 2:
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := c.Delete(ctx, id); err != nil {
			return err
		}
	default:
		fmt.Fprintln(a.out, "usage: examdesk students [list | add <name> | delete <id>]")
		return errUsage
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, s := range c.Students() {
		fmt.Fprintf(w, "%d\t%s\n", s.ID, s.Name)
	}
	return w.Flush()
}

func (a *app) templates(ctx context.Context, args []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	c := controllers.NewTemplatesController(a.bridge, a.logger)

	switch {
	case len(args) == 0 || args[0] == "list":
		if err := c.Load(ctx); err != nil {
			return err
		}
	case args[0] == "create" && len(args) >= 2:
		fs := subFlags("templates create")
		name := fs.String("name", "", "template name (default: file name)")
		top := fs.Int("top", -1, "top margin override")
		bottom := fs.Int("bottom", -1, "bottom margin override")
		if err := fs.Parse(args[1:]); err != nil || fs.NArg() != 1 {
			return errUsage
		}
		path, err := filepath.Abs(fs.Arg(0))
		if err != nil {
			return err
		}
		editor, err := c.BeginCreate(ctx, path)
		if err != nil {
			return err
		}
		if *name != "" {
			editor.SetName(*name)
		}
		if *top >= 0 {
			editor.SetTop(*top)
		}
		if *bottom >= 0 {
			editor.SetBottom(*bottom)
		}
		if _, err := c.Save(ctx, editor); err != nil {
			return err
		}
	case args[0] == "delete" && len(args) == 2:
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := c.Delete(ctx, id); err != nil {
			return err
		}
	default:
		fmt.Fprintln(a.out, "usage: examdesk templates [list | create [-name n] <pdf> | delete <id>]")
		return errUsage
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tMARGINS\tPATH")
	for _, t := range c.Templates() {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", t.ID, t.Name, t.MarginsJSON, t.Path)
	}
	return w.Flush()
}

func (a *app) archive(ctx context.Context, args []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	c := controllers.NewArchiveController(a.bridge, a.logger)

	switch {
	case len(args) == 0 || args[0] == "list":
		if err := c.Load(ctx); err != nil {
			return err
		}
		w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDATE\tSTUDENT\tQUESTIONS")
		for _, t := range c.Snapshot().Tests {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", t.ID, t.Date, deref(t.StudentName), t.QuestionCount)
		}
		return w.Flush()
	case (args[0] == "show" || args[0] == "key") && len(args) == 2:
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		if err := c.Select(ctx, id); err != nil {
			return err
		}
		if args[0] == "show" {
			for i, q := range c.Snapshot().Questions {
				fmt.Fprintf(a.out, "%d. [%d] %s\n", i+1, q.ID, truncate(q.Text, 70))
			}
			return nil
		}
		key, err := c.GenerateAnswerKey(ctx)
		if err != nil {
			return err
		}
		for _, ans := range key.Answers {
			fmt.Fprintf(a.out, "%d: %s\n", ans.QNum, ans.Answer)
		}
		return nil
	case args[0] == "xlsx" && len(args) == 2:
		out, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}
		path, err := c.ExportXLSX(ctx, out)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, "written", path)
		return nil
	}
	fmt.Fprintln(a.out, "usage: examdesk archive [list | show <id> | key <id> | xlsx <out>]")
	return errUsage
}

func (a *app) settings(ctx context.Context, args []string) error {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	c := controllers.NewSettingsController(a.bridge, a.logger)
	if err := c.Load(ctx); err != nil {
		return err
	}

	switch {
	case len(args) == 0 || args[0] == "get":
	case args[0] == "set":
		fs := subFlags("settings set")
		key := fs.String("key", "", "Gemini API key")
		engine := fs.String("engine", "", "AI engine: gemini or yolo")
		if err := fs.Parse(args[1:]); err != nil {
			return errUsage
		}
		s := c.Settings()
		if *key != "" {
			s.GeminiAPIKey = *key
		}
		if *engine != "" {
			s.AIEngine = *engine
		}
		if err := c.Save(ctx, s); err != nil {
			return err
		}
	default:
		fmt.Fprintln(a.out, "usage: examdesk settings [get | set [-key k] [-engine gemini|yolo]]")
		return errUsage
	}

	s := c.Settings()
	key := "(not set)"
	if s.GeminiAPIKey != "" {
		key = maskKey(s.GeminiAPIKey)
	}
	fmt.Fprintf(a.out, "gemini_api_key: %s\nai_engine: %s\n", key, s.AIEngine)
	return nil
}

func maskKey(k string) string {
	if len(k) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}

func (a *app) clear(ctx context.Context, args []string) error {
	fs := subFlags("clear")
	yes := fs.Bool("yes", false, "confirm deleting every question and test")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if !*yes {
		fmt.Fprintln(a.out, "refusing to clear the database without -yes")
		return errUsage
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := controllers.NewSettingsController(a.bridge, a.logger).ClearDatabase(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "database cleared")
	return nil
}

func (a *app) log(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "usage: examdesk log <message>")
		return errUsage
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.bridge.Log(ctx, strings.Join(args, " "))
}
