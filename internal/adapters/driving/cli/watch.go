package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
	"github.com/custodia-labs/studypipe/internal/logger"
)

// minWatchTick bounds how often pending files are checked.
const minWatchTick = 100 * time.Millisecond

var (
	watchSettle   time.Duration
	watchUploader string
)

var watchCmd = &cobra.Command{
	Use:   "watch <inbox-dir>",
	Short: "Run the pipeline for every PDF dropped into an inbox",
	Long: `Watch <inbox-dir>/<subject>/ for new PDF files and run the pipeline
for each one. Subject directories are created if missing.

A file is picked up once it has not changed for --settle. Runs are
sequential; a failed run is reported and the watcher keeps going.`,
	Args:        usageArgs(cobra.ExactArgs(1)),
	Annotations: needs(servicesPipeline),
	RunE:        runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 2*time.Second, "quiet period before a new file is processed")
	watchCmd.Flags().StringVarP(&watchUploader, "uploader", "u", "", "uploader recorded for every run")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	w := newInboxWatcher(args[0], watchSettle, pipelineService)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	for _, subject := range domain.Subjects() {
		dir := filepath.Join(w.root, subject.String())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInput, err)
		}
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	tick := w.settle / 2
	if tick < minWatchTick {
		tick = minWatchTick
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	ctx := cmd.Context()
	cmd.Printf("Watching %s for new PDFs (Ctrl+C to stop)\n", w.root)

	for {
		select {
		case <-ctx.Done():
			cmd.Println("Stopped.")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev, time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		case now := <-ticker.C:
			for _, path := range w.ready(now) {
				w.process(ctx, cmd, path)
			}
		}
	}
}

// inboxWatcher tracks PDFs under {root}/{subject}/ until they settle.
// It is driven from a single goroutine.
type inboxWatcher struct {
	root     string
	settle   time.Duration
	pipeline driving.PipelineService
	uploader string

	pending map[string]time.Time
	done    map[string]bool
}

func newInboxWatcher(root string, settle time.Duration, pipeline driving.PipelineService) *inboxWatcher {
	return &inboxWatcher{
		root:     filepath.Clean(root),
		settle:   settle,
		pipeline: pipeline,
		uploader: watchUploader,
		pending:  make(map[string]time.Time),
		done:     make(map[string]bool),
	}
}

// subjectOf returns the subject for a PDF directly inside a subject directory.
func (w *inboxWatcher) subjectOf(path string) (domain.Subject, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 {
		return "", false
	}
	name := parts[1]
	if strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return "", false
	}
	subject, err := domain.ParseSubject(parts[0])
	if err != nil {
		return "", false
	}
	return subject, true
}

func (w *inboxWatcher) handleEvent(ev fsnotify.Event, now time.Time) {
	if _, ok := w.subjectOf(ev.Name); !ok {
		return
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		delete(w.pending, ev.Name)
		delete(w.done, ev.Name)
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		if !w.done[ev.Name] {
			w.pending[ev.Name] = now
		}
	}
}

// ready removes and returns pending files quiet for at least settle, in name order.
func (w *inboxWatcher) ready(now time.Time) []string {
	var out []string
	for path, last := range w.pending {
		if now.Sub(last) >= w.settle {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	for _, path := range out {
		delete(w.pending, path)
	}
	return out
}

func (w *inboxWatcher) process(ctx context.Context, cmd *cobra.Command, path string) {
	subject, ok := w.subjectOf(path)
	if !ok {
		return
	}
	w.done[path] = true

	cmd.Printf("\nNew upload: %s\n", path)
	result, err := w.pipeline.Run(ctx, driving.RunRequest{
		PDFPath:    path,
		Subject:    subject,
		UploadedBy: w.uploader,
	})
	if result != nil && result.Material != nil {
		printRunResult(cmd, result)
	}
	if err != nil {
		logger.Error("run for %s failed: %v", filepath.Base(path), err)
	}
}
