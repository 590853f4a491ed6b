package gocd

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nemanjakrstic/snitch/internal/testreport"
	"github.com/nemanjakrstic/snitch/internal/types"
)

// Reports downloads and decodes every report referenced by e.ReportURLs.
// Downloads run concurrently, bounded by MaxConcurrentRequests. A report
// that is not on the GoCD server, cannot be fetched or cannot be decoded is
// logged and skipped. Suites are returned in the order of e.ReportURLs.
func (c *Client) Reports(ctx context.Context, e *types.PipelineEvent) []types.TestSuiteReport {
	if len(e.ReportURLs) == 0 {
		return nil
	}

	results := make([][]types.TestSuiteReport, len(e.ReportURLs))
	sem := make(chan struct{}, MaxConcurrentRequests)
	var wg sync.WaitGroup
	for i, ref := range e.ReportURLs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			suites, err := c.fetchReport(ctx, sem, ref)
			if err != nil {
				c.logger.Warn("Skipping test report",
					zap.String("pipeline", e.Name),
					zap.String("url", ref),
					zap.Error(err),
				)
				return
			}
			results[i] = suites
		}(i, ref)
	}
	wg.Wait()

	var out []types.TestSuiteReport
	for _, suites := range results {
		out = append(out, suites...)
	}
	return out
}

func (c *Client) fetchReport(ctx context.Context, sem chan struct{}, ref string) ([]types.TestSuiteReport, error) {
	u, err := c.resolve(ref)
	if err != nil {
		return nil, err
	}

	release, err := acquire(ctx, sem)
	if err != nil {
		return nil, err
	}
	defer release()

	body, err := c.get(ctx, u, "application/json")
	if err != nil {
		return nil, err
	}
	defer body.Close()

	suites, err := testreport.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	return suites, nil
}
