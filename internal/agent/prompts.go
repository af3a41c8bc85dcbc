package agent

import (
	"log"
	"os"
	"path/filepath"
)

// defaultPlannerPrompt is used when no prompts directory is present. The
// format instructions must stay in sync with the plan parser.
const defaultPlannerPrompt = `You are a task automation agent. For each task,
create a detailed plan to accomplish it. Your plan may include:
1. Files to create with their content
2. Shell commands to execute

Format your response strictly as follows:

FILE: <filename.ext>
` + "```" + `
<file content>
` + "```" + `

COMMAND: <command to execute>

Make sure:
- Commands are executable in a standard shell/terminal
- If creating directories is needed, add appropriate commands
- For programming tasks, write correct, complete code
- File paths are relative to the working directory`

// Prompts loads the planner system prompt from a directory, falling back
// to the built-in default.
type Prompts struct {
	Directory string
}

func NewPrompts(dir string) *Prompts {
	return &Prompts{Directory: dir}
}

func (pm *Prompts) PlannerPrompt() string {
	path := filepath.Join(pm.Directory, "planner.md")
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: failed to read planner prompt %s: %v", path, err)
		}
		return defaultPlannerPrompt
	}
	return string(data)
}
