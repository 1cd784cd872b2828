package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-albwaf-go/internal/config"
	"github.com/lex00/wetwire-albwaf-go/internal/validation"
)

// newWatchCmd creates the "watch" subcommand for re-synthesising on config
// changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var (
		debounce     time.Duration
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-synthesise when the config or context file changes",
		Long: `Watch monitors the config file and the lookup context file and
re-synthesises the template on every change.

Each run validates the topology first and only writes the template when
validation passes. Rapid changes are debounced.

Examples:
    wetwire-albwaf watch -o template.json
    wetwire-albwaf watch --config stacks/prod.yaml --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), opts, watchOptions{
				debounce:     debounce,
				outputFormat: outputFormat,
				outputFile:   outputFile,
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

type watchOptions struct {
	debounce     time.Duration
	outputFormat string
	outputFile   string
}

// watchedFiles returns the absolute paths of the config and context files.
func (o *globalOptions) watchedFiles() ([]string, error) {
	conf, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	configPath := o.configPath
	if configPath == "" {
		configPath = config.DefaultConfigFile
	}

	var files []string
	for _, f := range []string{configPath, conf.Lookup.ContextFile} {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		files = append(files, abs)
	}
	return files, nil
}

func runWatch(ctx context.Context, opts *globalOptions, wopts watchOptions) error {
	files, err := opts.watchedFiles()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Directories are watched so editors that replace files are seen.
	watched := make(map[string]bool, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		watched[f] = true
		dir := filepath.Dir(f)
		if dirs[dir] {
			continue
		}
		dirs[dir] = true
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	for _, f := range files {
		fmt.Fprintf(os.Stderr, "Watching: %s\n", f)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	fmt.Fprintln(os.Stderr, "Running initial synth...")
	runWatchSynth(ctx, opts, wopts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)

	fmt.Fprintln(os.Stderr, "\nWatching for changes... (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !watched[filepath.Clean(event.Name)] {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(wopts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			fmt.Fprintf(os.Stderr, "\n[%s] Change detected, re-synthesising...\n", time.Now().Format("15:04:05"))
			runWatchSynth(ctx, opts, wopts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-ctx.Done():
			return ctx.Err()

		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\nStopping watch...")
			return nil
		}
	}
}

// runWatchSynth validates and synthesises once, reporting errors without
// stopping the watch.
func runWatchSynth(ctx context.Context, opts *globalOptions, wopts watchOptions) {
	s, plan, err := opts.loadPlan(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Synth error: %v\n", err)
		return
	}

	if issues := validation.CheckPlan(plan); len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "Error: %s\n", issue)
		}
		fmt.Fprintln(os.Stderr, "Validation failed, skipping synth")
		return
	}

	tmpl, err := plan.Template(s.conf.Stack.Description)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Synth error: %v\n", err)
		return
	}

	data, err := encodeTemplate(tmpl, wopts.outputFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output error: %v\n", err)
		return
	}

	if wopts.outputFile == "" {
		fmt.Println(string(data))
		return
	}

	if err := os.WriteFile(wopts.outputFile, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Synth successful, wrote %d resources to %s\n", len(tmpl.Resources), wopts.outputFile)
}
