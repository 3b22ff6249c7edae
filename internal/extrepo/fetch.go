package extrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
)

// FetchTags lists owner/repo's tags via the GitHub REST API, shelling out to
// curl rather than net/http so every external-process invocation in this
// package goes through the same os/exec + shell-quoting discipline as the
// download and extract steps.
func FetchTags(owner, repo string) ([]string, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/tags", owner, repo)
	out, err := exec.CommandContext(context.Background(), "curl", "-fsSL", url).Output()
	if err != nil {
		return nil, fmt.Errorf("curl %s: %w", url, err)
	}
	var tags []struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(out, &tags); err != nil {
		return nil, fmt.Errorf("parsing tag list for %s/%s: %w", owner, repo, err)
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names, nil
}
