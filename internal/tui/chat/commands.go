package chat

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/llama-chat/llama-chat/internal/session"
)

// Command is a slash command.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// AllCommands returns all available slash commands.
func AllCommands() []Command {
	return []Command{
		{
			Name:        "help",
			Aliases:     []string{"h", "?"},
			Description: "Show help and available commands",
			Usage:       "/help",
		},
		{
			Name:        "cancel",
			Aliases:     []string{"stop"},
			Description: "Cancel the pending response",
			Usage:       "/cancel",
		},
		{
			Name:        "clear-input",
			Aliases:     []string{"ci"},
			Description: "Clear the message box",
			Usage:       "/clear-input",
		},
		{
			Name:        "export",
			Description: "Export the conversation as markdown",
			Usage:       "/export [path]",
		},
		{
			Name:        "model",
			Aliases:     []string{"m"},
			Description: "Show the active backend",
			Usage:       "/model",
		},
		{
			Name:        "quit",
			Aliases:     []string{"q", "exit"},
			Description: "Exit chat",
			Usage:       "/quit",
		},
	}
}

// CommandSource implements fuzzy.Source for command searching.
type CommandSource []Command

func (c CommandSource) String(i int) string {
	return c[i].Name
}

func (c CommandSource) Len() int {
	return len(c)
}

// FilterCommands returns commands matching query, best match first.
func FilterCommands(query string) []Command {
	commands := AllCommands()
	query = strings.ToLower(strings.TrimPrefix(query, "/"))
	if query == "" {
		return commands
	}

	if cmd, ok := lookupCommand(query); ok {
		return []Command{cmd}
	}

	var result []Command
	for _, match := range fuzzy.FindFrom(query, CommandSource(commands)) {
		result = append(result, commands[match.Index])
	}
	return result
}

func lookupCommand(name string) (Command, bool) {
	for _, c := range AllCommands() {
		if c.Name == name {
			return c, true
		}
		for _, alias := range c.Aliases {
			if alias == name {
				return c, true
			}
		}
	}
	return Command{}, false
}

// resolveCommand finds the command for a typed name: exact name or alias,
// then a unique fuzzy match.
func resolveCommand(name string) (Command, []Command, bool) {
	if cmd, ok := lookupCommand(name); ok {
		return cmd, nil, true
	}
	matches := FilterCommands(name)
	if len(matches) == 1 {
		return matches[0], nil, true
	}
	return Command{}, matches, false
}

// ExecuteCommand runs a slash command typed into the composer.
func (m *Model) ExecuteCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	cmd, candidates, ok := resolveCommand(name)
	if !ok {
		if len(candidates) == 0 {
			return m.showStatus(fmt.Sprintf("Unknown command: /%s. Type /help for available commands.", name))
		}
		names := make([]string, len(candidates))
		for i, c := range candidates {
			names[i] = "/" + c.Name
		}
		return m.showStatus(fmt.Sprintf("Did you mean: %s", strings.Join(names, ", ")))
	}

	switch cmd.Name {
	case "help":
		return m.showHelp()
	case "cancel":
		return m.cancelPending()
	case "clear-input":
		m.textarea.Reset()
		return m.showStatus("")
	case "export":
		return m.exportTranscript(args)
	case "model":
		return m.showModel()
	case "quit":
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) showHelp() (tea.Model, tea.Cmd) {
	var b strings.Builder
	b.WriteString("Commands:\n")
	for _, c := range AllCommands() {
		fmt.Fprintf(&b, "  %-16s %s\n", c.Usage, m.styles.Muted.Render(c.Description))
	}
	b.WriteString("Enter send · Alt+Enter newline · Esc cancel · Ctrl+C quit")
	return m.showStatus(b.String())
}

func (m *Model) showModel() (tea.Model, tea.Cmd) {
	name := m.coord.BackendName()
	if name == "" {
		return m.showStatus("No model loaded")
	}
	return m.showStatus(fmt.Sprintf("Backend: %s · state: %s", name, m.coord.State()))
}

func (m *Model) exportTranscript(args []string) (tea.Model, tea.Cmd) {
	path := fmt.Sprintf("llama-chat-%s.md", time.Now().Format("20060102-150405"))
	if len(args) > 0 {
		path = args[0]
	}

	var sess *session.Session
	if m.archiver != nil {
		sess = m.archiver.Session()
	}
	content := session.ExportToMarkdown(sess, m.store.Turns())
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return m.showStatus(m.styles.FormatResult(false, fmt.Sprintf("export failed: %v", err)))
	}
	return m.showStatus(m.styles.FormatResult(true, "exported to "+path))
}
