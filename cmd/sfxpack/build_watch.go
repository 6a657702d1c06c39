// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/sfxpack/sfxpack/internal/builder"
	"github.com/sfxpack/sfxpack/internal/watch"
	"github.com/sfxpack/sfxpack/pkg/request"
)

// runWatch builds once, then rebuilds whenever an input or one of extra
// changes. reload re-reads the request so that edits to a request file take
// effect. It blocks until ctx is cancelled (e.g., Ctrl+C).
func runWatch(ctx context.Context, app *App, b *builder.Builder, req request.PackageRequest, extra []string, reload func() (request.PackageRequest, error)) error {
	fmt.Fprintf(app.stdout, "%s Watch mode: initial build of '%s'\n", CmdStyle.Render("→"), req.DerivedName())
	if err := buildOnce(ctx, app, b, req); err != nil {
		// The user may fix the inputs and save again.
		fmt.Fprintf(app.stderr, "%s Initial build failed: %v\n", WarningStyle.Render("!"), err)
	}

	fmt.Fprintf(app.stdout, "\n%s Watching for changes (Ctrl+C to stop)...\n\n", CmdStyle.Render("→"))

	w, err := watch.New(watch.Config{
		Paths:   slices.Concat(req.Files, req.Folders, extra),
		Exclude: outputsOf(b, req),
		Logger:  b.Logger,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(app.stdout, "%s Detected %d change(s). Rebuilding...\n", CmdStyle.Render("→"), len(changed))
			next, reloadErr := reload()
			if reloadErr != nil {
				fmt.Fprintf(app.stderr, "%s Could not reload the request: %v\n", WarningStyle.Render("!"), reloadErr)
				next = req
			}
			if buildErr := buildOnce(ctx, app, b, next); buildErr != nil {
				fmt.Fprintf(app.stderr, "%s Build failed: %v\n", WarningStyle.Render("!"), buildErr)
			}
			fmt.Fprintf(app.stdout, "\n%s Watching for changes...\n\n", CmdStyle.Render("→"))
			return nil
		},
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	return w.Run(ctx)
}

// outputsOf lists the files a build of req writes, so that rebuilding does
// not retrigger the watcher when the output directory is being watched.
func outputsOf(b *builder.Builder, req request.PackageRequest) []string {
	plan, err := b.Plan(req)
	if err != nil {
		return nil
	}
	return slices.DeleteFunc([]string{
		plan.ExecutablePath,
		plan.SidecarPath,
		plan.ChecksumsPath,
		plan.ManifestPath,
	}, func(p string) bool { return p == "" })
}
