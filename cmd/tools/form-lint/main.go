// cmd/tools/form-lint/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"survey-forms/internal/common/config"
	"survey-forms/internal/common/database"
	"survey-forms/internal/common/logger"
	"survey-forms/internal/survey/capture"
	"survey-forms/internal/survey/form"
	"survey-forms/internal/survey/loader"
	"survey-forms/internal/survey/schema"
	"survey-forms/pkg/registry"
)

func main() {
	lintCmd := flag.NewFlagSet("lint", flag.ExitOnError)
	dir := lintCmd.String("dir", "public/data", "Public data directory searched before the bundled forms")
	all := lintCmd.Bool("all", false, "Lint every file in -dir plus every bundled form")

	tasksCmd := flag.NewFlagSet("tasks", flag.ExitOnError)
	registryPath := tasksCmd.String("path", "", "Registry file (defaults to the built-in registry)")

	capturesCmd := flag.NewFlagSet("captures", flag.ExitOnError)
	configPath := capturesCmd.String("config", "", "Config file (defaults to the standard config search)")
	limit := capturesCmd.Int("limit", 20, "Number of captures to show")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "lint":
		lintCmd.Parse(os.Args[2:])
		names := lintCmd.Args()
		if *all {
			names = append(names, formNames(*dir)...)
		}
		if len(names) == 0 {
			fmt.Println("Error: give at least one file name or -all.")
			lintCmd.Usage()
			os.Exit(1)
		}
		ld := loader.New(logger.NewNoOpLogger(),
			loader.NewPublicSource(nil, "", *dir),
			loader.NewBundledSource(nil),
		)
		failed := 0
		for _, name := range names {
			rep := lintFile(context.Background(), ld, name)
			rep.print(os.Stdout)
			if !rep.ok() {
				failed++
			}
		}
		if failed > 0 {
			fmt.Printf("%d of %d forms have errors\n", failed, len(names))
			os.Exit(1)
		}

	case "tasks":
		tasksCmd.Parse(os.Args[2:])
		reg, err := loadRegistry(*registryPath)
		if err != nil {
			fmt.Printf("Error loading registry: %v\n", err)
			os.Exit(1)
		}
		printTasks(os.Stdout, reg)

	case "captures":
		capturesCmd.Parse(os.Args[2:])
		if capturesCmd.NArg() != 1 {
			fmt.Println("Error: give exactly one form file name.")
			capturesCmd.Usage()
			os.Exit(1)
		}
		store, closeDB, err := openCaptures(*configPath)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer closeDB()
		if err := printCaptures(context.Background(), os.Stdout, store, capturesCmd.Arg(0), *limit); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// report is the lint result of one form definition. Errors stop the form from
// being served; warnings describe content the sanitizer drops or repairs.
type report struct {
	FileName string
	Source   string
	Fields   int
	DryRun   bool
	Errors   []string
	Warnings []string
}

func (r report) ok() bool { return len(r.Errors) == 0 }

func (r report) print(w io.Writer) {
	status := "ok"
	if !r.ok() {
		status = "FAIL"
	}
	mode := "live"
	if r.DryRun {
		mode = "dry-run"
	}
	fmt.Fprintf(w, "%-4s %s (%d fields, %s)\n", status, r.FileName, r.Fields, mode)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "     error: %s\n", e)
	}
	for _, warn := range r.Warnings {
		fmt.Fprintf(w, "     warning: %s\n", warn)
	}
}

func lintFile(ctx context.Context, ld loader.SchemaLoader, fileName string) report {
	rep := report{FileName: fileName}

	raw, err := ld.Load(ctx, fileName)
	if err != nil {
		rep.Errors = append(rep.Errors, err.Error())
		return rep
	}

	sc := schema.Sanitize(raw)
	if sc == nil {
		rep.Errors = append(rep.Errors, "definition is not a JSON object")
		return rep
	}
	rep.Fields = len(sc.Fields)
	rep.DryRun = sc.DryRun()

	doc := raw.(map[string]interface{})
	rawFields, _ := doc["fields"].([]interface{})
	if dropped := len(rawFields) - len(sc.Fields); dropped > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d field entries were dropped", dropped))
	}
	if _, ok := doc["submissionConfig"]; !ok {
		rep.Warnings = append(rep.Warnings, "no submissionConfig, submissions are enabled by default")
	}

	aligned := len(rawFields) == len(sc.Fields)
	for i, f := range sc.Fields {
		if rf, ok := rawAt(rawFields, i); ok && aligned {
			if key, _ := rf["key"].(string); key != "" && key != f.Key {
				rep.Warnings = append(rep.Warnings, fmt.Sprintf("key %q renamed to %q", key, f.Key))
			}
		}
		if f.Type.IsChoice() && f.PlaceholderOptions() {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %s field has no options, placeholders used", f.Key, f.Type))
		}
		if f.Required && f.Disabled {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: required field is disabled", f.Key))
		}
	}
	if len(sc.Fields) == 0 {
		rep.Warnings = append(rep.Warnings, "form has no fields")
	}

	if _, err := form.Render(sc, form.Values{}, nil); err != nil {
		rep.Errors = append(rep.Errors, "render: "+err.Error())
	}
	return rep
}

// rawAt returns the raw entry at i.
func rawAt(rawFields []interface{}, i int) (map[string]interface{}, bool) {
	if i >= len(rawFields) {
		return nil, false
	}
	rf, ok := rawFields[i].(map[string]interface{})
	return rf, ok
}

func formNames(dir string) []string {
	seen := map[string]bool{}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	for _, m := range matches {
		seen[filepath.Base(m)] = true
	}
	for _, name := range loader.BundledNames(nil) {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadRegistry(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

func printTasks(w io.Writer, reg *registry.ActivityRegistry) {
	for _, a := range reg.Activities {
		required, _ := a.InputSchema["required"].([]interface{})
		req, _ := json.Marshal(required)
		fmt.Fprintf(w, "%-20s %-24s timeout=%s retries=%d required=%s\n",
			a.TaskType, a.DisplayName, a.Timeout, a.Retries, req)
	}
}

type captureLister interface {
	Recent(ctx context.Context, fileName string, limit int) ([]capture.Record, error)
}

func openCaptures(path string) (*capture.Store, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if !cfg.Database.Postgres.Enabled() {
		return nil, nil, fmt.Errorf("database.postgres is not configured")
	}
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	return capture.NewStore(pg.DB), func() { pg.Close() }, nil
}

// printCaptures lists the latest dry-run payloads stored for fileName.
func printCaptures(ctx context.Context, w io.Writer, store captureLister, fileName string, limit int) error {
	records, err := store.Recent(ctx, fileName, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(w, "no captures for %s\n", fileName)
		return nil
	}
	for _, rec := range records {
		payload, _ := json.Marshal(rec.Payload)
		fmt.Fprintf(w, "%s  %s  session=%s  %s\n",
			rec.CapturedAt.UTC().Format(time.RFC3339), rec.ID, rec.SessionID, payload)
	}
	return nil
}

func help() {
	fmt.Println("Usage: form-lint <command> [arguments]")
	fmt.Println("Commands:")
	fmt.Println("  lint   Check form definitions: form-lint lint [-dir public/data] [-all] [file.json ...]")
	fmt.Println("  tasks  List the job types served by the workers: form-lint tasks [-path registry.json]")
	fmt.Println("  captures  Show stored dry-run submissions: form-lint captures [-config config.yaml] [-limit 20] file.json")
	fmt.Println("  help   Show this help message")
}
