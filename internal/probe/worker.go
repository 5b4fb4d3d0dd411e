package probe

import (
	"context"

	"webInspector/internal/output"
)

// InspectAll inspects urls one after another and streams the reports in
// input order. The channel is closed when every URL is done or ctx is
// cancelled; URLs not yet started when ctx ends are skipped.
func (i *Inspector) InspectAll(ctx context.Context, urls []string) <-chan output.Report {
	results := make(chan output.Report)

	go func() {
		defer close(results)
		for _, rawURL := range urls {
			// Check if context is cancelled
			select {
			case <-ctx.Done():
				return
			default:
			}

			report := i.Inspect(ctx, rawURL)
			select {
			case results <- report:
			case <-ctx.Done():
				return
			}
		}
	}()

	return results
}
