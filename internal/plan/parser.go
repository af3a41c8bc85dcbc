package plan

import (
	"strings"
)

// Parse turns model output into a Plan. The expected markup:
//
//	FILE: <path>
//	```
//	<content>
//	```
//
//	COMMAND: <command line>
//
// Fence lines (with or without a language tag) are skipped; everything
// between the markers belongs to the most recent FILE step. The result is
// validated before being returned.
func Parse(task, text string) (*Plan, error) {
	var steps []Step

	var fileTarget string
	var fileContent []string
	inFence := false

	flushFile := func() {
		if fileTarget != "" {
			steps = append(steps, Step{
				Kind:    WriteFile,
				Target:  fileTarget,
				Content: strings.Join(fileContent, "\n"),
			})
			fileTarget = ""
			fileContent = nil
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimRight(line, " \t")

		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}

		if target, ok := strings.CutPrefix(line, "FILE:"); ok {
			flushFile()
			fileTarget = strings.TrimSpace(target)
			continue
		}

		if command, ok := strings.CutPrefix(line, "COMMAND:"); ok {
			flushFile()
			if cmd := strings.TrimSpace(command); cmd != "" {
				steps = append(steps, Step{Kind: RunCommand, Target: cmd})
			}
			continue
		}

		if fileTarget != "" {
			fileContent = append(fileContent, line)
		}
	}
	flushFile()

	p := New(task, steps)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
