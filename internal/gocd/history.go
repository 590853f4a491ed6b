package gocd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

type pipelineHistory struct {
	Pipelines []pipelineInstance `json:"pipelines"`
}

type pipelineInstance struct {
	Name    string          `json:"name"`
	Counter int             `json:"counter"`
	Stages  []stageInstance `json:"stages"`
}

type stageInstance struct {
	Name   string `json:"name"`
	Result string `json:"result"`
	Status string `json:"status"`
}

func (s stageInstance) passed() bool {
	result := s.Result
	if result == "" {
		result = s.Status
	}
	return strings.EqualFold(result, "Passed")
}

// IsEntirePipelineGreen reports whether every stage of the pipeline's latest
// run passed. A pipeline with no history, or a run with no stages, is not green.
func (c *Client) IsEntirePipelineGreen(ctx context.Context, name string) (bool, error) {
	u, err := c.resolve(fmt.Sprintf("/go/api/pipelines/%s/history?page_size=1", url.PathEscape(name)))
	if err != nil {
		return false, err
	}

	var history pipelineHistory
	if err := c.getJSON(ctx, u, &history); err != nil {
		return false, fmt.Errorf("failed to get history for %s: %w", name, err)
	}
	if len(history.Pipelines) == 0 {
		return false, nil
	}

	latest := history.Pipelines[0]
	if len(latest.Stages) == 0 {
		return false, nil
	}
	for _, s := range latest.Stages {
		if !s.passed() {
			return false, nil
		}
	}
	return true, nil
}
