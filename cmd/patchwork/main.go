// Package main is the entry point for the patchwork CLI, which locates and
// resolves an edit proposal against a workspace and prints the result as a
// unified diff preview or a JSON report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/patchwork/internal/config"
	"github.com/dshills/patchwork/internal/editor"
	"github.com/dshills/patchwork/internal/engine/buffer"
	"github.com/dshills/patchwork/internal/engine/diff"
	"github.com/dshills/patchwork/internal/event"
	"github.com/dshills/patchwork/internal/patch"
	"github.com/dshills/patchwork/internal/patch/apply"
	"github.com/dshills/patchwork/internal/patch/store"
	"github.com/dshills/patchwork/internal/project/filestore"
	"github.com/dshills/patchwork/internal/project/vfs"
	"github.com/dshills/patchwork/internal/project/watcher"
	"github.com/dshills/patchwork/internal/task"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

type options struct {
	configPath   string
	root         string
	contextLines int
	jsonOut      bool
	proposalPath string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, ok := parseFlags()
	if !ok {
		return 2
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if opts.contextLines >= 0 {
		cfg.ContextLines = opts.contextLines
	}

	raw, err := readProposal(opts.proposalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	prop, err := patch.ParseProposal(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid proposal: %v\n", err)
		return 1
	}
	for i := range prop.Edits {
		if !filepath.IsAbs(prop.Edits[i].Path) {
			prop.Edits[i].Path = filepath.Join(opts.root, prop.Edits[i].Path)
		}
	}

	files := filestore.New(vfs.NewOSFS(), filestore.WithMaxFileSize(cfg.MaxFileSize))
	if cfg.WatchFiles {
		fw, err := watchEditPaths(files, prop, opts.root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		defer fw.Close()
	}
	pool := task.NewPool(
		task.WithWorkerCount(cfg.Workers),
		task.WithQueueSize(cfg.QueueSize),
	)
	if err := pool.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	ctx := context.Background()
	defer pool.Stop(ctx)

	patches := store.New(files, pool, event.NewBus(),
		store.WithContextLines(cfg.ContextLines))

	id := patches.Insert(prop)
	resolved, err := patches.ResolvePatch(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	for _, re := range resolved.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", re)
	}

	if opts.jsonOut {
		report, err := patch.Report(resolved)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		fmt.Println(report)
		return exitCode(resolved)
	}

	if err := printPreview(files, resolved, opts.root, cfg.ContextLines); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return exitCode(resolved)
}

// watchEditPaths starts a file watcher over the proposal's target files so
// buffers reload if they change on disk while the patch is being located;
// resolution then re-diffs against the fresh content. Files that do not
// exist yet (create targets) have nothing to watch.
func watchEditPaths(files *filestore.FileStore, prop patch.Patch, root string) (*watcher.Watcher, error) {
	files.OnReload(func(b *buffer.Buffer) {
		fmt.Fprintf(os.Stderr, "Note: %s changed on disk, reloaded\n", displayPath(root, b.Path()))
	})
	fw, err := watcher.New(files)
	if err != nil {
		return nil, err
	}

	watched := make(map[string]bool, len(prop.Edits))
	for _, e := range prop.Edits {
		if watched[e.Path] {
			continue
		}
		watched[e.Path] = true
		if _, err := os.Stat(e.Path); err != nil {
			continue
		}
		if err := fw.Watch(e.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: watch %s: %v\n", displayPath(root, e.Path), err)
		}
	}
	return fw, nil
}

// printPreview applies the resolved patch to branch buffers and prints one
// unified diff per touched file.
func printPreview(files *filestore.FileStore, resolved *patch.ResolvedPatch, root string, contextLines int) error {
	view := editor.NewMultibuffer(resolved.Title)
	applier := apply.New(files, view)
	if err := applier.Apply(resolved); err != nil {
		return err
	}

	if resolved.Title != "" {
		fmt.Printf("%s\n\n", resolved.Title)
	}
	printed := make(map[string]bool)
	for _, ex := range view.Excerpts() {
		if printed[ex.Path] {
			continue
		}
		printed[ex.Path] = true

		src, ok := files.Get(ex.Path)
		if !ok {
			continue
		}
		branch, ok := applier.Branch(src.ID())
		if !ok {
			continue
		}
		name := displayPath(root, ex.Path)
		fmt.Print(diff.Unified(src.Text(), branch.Text(), "a/"+name, "b/"+name, contextLines))
	}
	return nil
}

func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !filepath.IsAbs(rel) {
		return rel
	}
	return path
}

func readProposal(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func exitCode(resolved *patch.ResolvedPatch) int {
	if len(resolved.Errors) > 0 && resolved.GroupCount() == 0 {
		return 1
	}
	return 0
}

func parseFlags() (options, bool) {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.root, "root", ".", "Workspace root for relative proposal paths")
	flag.IntVar(&opts.contextLines, "context", -1, "Context lines around each edit group (overrides config)")
	flag.BoolVar(&opts.jsonOut, "json", false, "Emit a JSON resolution report instead of diffs")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <proposal.json | ->\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Resolves an edit proposal against a workspace and previews the result.\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Printf("patchwork %s (%s)\n", version, commit)
		return opts, false
	}
	if flag.NArg() != 1 {
		flag.Usage()
		return opts, false
	}
	opts.proposalPath = flag.Arg(0)

	root, err := filepath.Abs(opts.root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return opts, false
	}
	opts.root = root
	return opts, true
}
