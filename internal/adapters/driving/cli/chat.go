package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/infinitegrit26/ACD2/internal/adapters/driving/tui"
	"github.com/infinitegrit26/ACD2/internal/core/domain"
	"github.com/infinitegrit26/ACD2/internal/core/ports/driven"
)

var chatPlain bool

// isTerminal reports whether stdin and stdout are both terminals.
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Long: `Start a conversation about your documents.

In a terminal this opens the full-screen chat. When input is piped, or with
--plain, a line-based prompt is used instead.

Controls (full-screen):
  Enter      - Send
  Alt+Enter  - New line
  Ctrl+O     - Browse documents
  F1         - Help
  Ctrl+C     - Quit

Commands (both modes):
  /clear  - forget the conversation
  /quit   - exit`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "use the line-based prompt")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer closeRuntime(rt)

	if rt.Agent == nil {
		return errors.New("chat agent not configured")
	}

	if chatPlain || !isTerminal() {
		return runREPL(cmd, rt, cmd.InOrStdin())
	}
	return runTUI(cmd, rt)
}

func runTUI(cmd *cobra.Command, rt *Runtime) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := tui.NewPorts(rt.Agent, rt.Store)
	ports.Prompts = rt.Prompts
	ports.Settings = settingsService

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// runREPL reads one question per line until EOF or /quit.
func runREPL(cmd *cobra.Command, rt *Runtime, in io.Reader) error {
	ctx := cmd.Context()
	scanner := bufio.NewScanner(in)
	var history []driven.ChatMessage

	cmd.Println("pdfchat: ask about your documents. /quit to exit.")
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			history = nil
			cmd.Println("Conversation cleared.")
			continue
		}

		answer, err := rt.Agent.Ask(ctx, history, line)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A failed turn leaves the history untouched.
			cmd.Println(domain.ApologyMessage(err))
			continue
		}

		cmd.Println(answer.Text)
		if answer.RetrievalFailed {
			cmd.Println("(document search failed, answered without documents)")
		}
		history = append(history,
			driven.ChatMessage{Role: driven.RoleUser, Content: line},
			driven.ChatMessage{Role: driven.RoleAssistant, Content: answer.Text},
		)
	}
}
