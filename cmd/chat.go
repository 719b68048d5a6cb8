/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/chzyer/readline"
	"github.com/longkey1/shopadvice/internal/advice"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	model   string
	rawText bool
)

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Ask the shopping advisor",
	Long: `Ask the shopping advisor for product recommendations.

If a message is given as arguments, it is sent once and the advisor's reply is printed.
If the message is "-", it is read from stdin.
Without arguments an interactive session starts; the transcript lives until you exit.

The advisor is grounded in the products of catalog_file. The prompt template
(prompt, looked up in prompt_dirs) must contain a {{catalog}} placeholder:
system = "You are the shopping advisor... {{catalog}}"
greeting = "optional greeting shown first"
model = "optional-provider:model"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		adv, err := newAdvisor(ctx, cmd)
		if err != nil {
			return err
		}
		out := newReplyPrinter(rawText)

		if len(args) == 0 {
			return runInteractiveMode(ctx, adv, out)
		}

		var message string
		if len(args) == 1 && args[0] == "-" {
			input, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading from stdin: %w", err)
			}
			message = string(input)
		} else {
			message = strings.Join(args, " ")
		}

		sess := adv.newSession()
		if !sess.Submit(ctx, message) {
			return fmt.Errorf("message is empty")
		}
		turns := sess.Transcript()
		out.print(turns[len(turns)-1].Text)
		return nil
	},
}

// runInteractiveMode starts an interactive chat session
func runInteractiveMode(ctx context.Context, adv *advisor, out *replyPrinter) error {
	sess := adv.newSession()

	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".config", "shopadvice", "chat_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "/exit",
		Stdout:          os.Stderr,
	})
	if err != nil {
		return fmt.Errorf("initializing line editor: %w", err)
	}
	defer rl.Close()

	// Print session header
	fmt.Fprintf(os.Stderr, "\n=== Shopping Advisor [%s] ===\n", shortID(sess.ID))
	fmt.Fprintf(os.Stderr, "Model: %s\n", adv.cfg.Model)
	fmt.Fprintf(os.Stderr, "Products: %d\n", len(adv.products))
	fmt.Fprintf(os.Stderr, "Type '/help' for commands, '/exit' or 'Ctrl+D' to quit\n")
	fmt.Fprintf(os.Stderr, "===================================\n\n")

	out.print(sess.Transcript()[0].Text)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				fmt.Fprintln(os.Stderr, "Goodbye!")
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(os.Stderr, "\nGoodbye!")
			return nil
		}
		if err != nil {
			return fmt.Errorf("input error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if handleSpecialCommand(input, sess) {
				continue
			}
			return nil
		}

		done, ok := sess.SubmitAsync(ctx, line)
		if !ok {
			fmt.Fprintln(os.Stderr, "Still waiting for the previous reply.")
			continue
		}

		spinnerDone := make(chan bool)
		go showSpinner(spinnerDone)
		<-done
		spinnerDone <- true
		close(spinnerDone)

		turns := sess.Transcript()
		out.print(turns[len(turns)-1].Text)
	}
}

// showSpinner displays a spinner animation while waiting for response
func showSpinner(done chan bool) {
	spinners := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	i := 0
	for {
		select {
		case <-done:
			// Clear the spinner line
			fmt.Fprint(os.Stderr, "\r\033[K")
			return
		default:
			fmt.Fprintf(os.Stderr, "\r%s Finding something for you...", spinners[i])
			i = (i + 1) % len(spinners)
			time.Sleep(80 * time.Millisecond)
		}
	}
}

// handleSpecialCommand processes special commands in interactive mode
// Returns true to continue the loop, false to exit
func handleSpecialCommand(command string, sess *advice.Session) bool {
	command = strings.ToLower(strings.TrimSpace(command))

	switch command {
	case "/help", "/h":
		fmt.Fprintln(os.Stderr, "\nAvailable commands:")
		fmt.Fprintln(os.Stderr, "  /help, /h     - Show this help message")
		fmt.Fprintln(os.Stderr, "  /history      - Show the transcript so far")
		fmt.Fprintln(os.Stderr, "  /grounding    - Show the system instruction sent to the model")
		fmt.Fprintln(os.Stderr, "  /clear, /c    - Clear screen (Unix/Linux only)")
		fmt.Fprintln(os.Stderr, "  /exit, /quit  - Exit interactive mode")
		fmt.Fprintln(os.Stderr, "  Ctrl+D        - Exit interactive mode")
		fmt.Fprintln(os.Stderr, "")
		return true

	case "/history":
		for _, turn := range sess.Transcript() {
			label := "Advisor"
			if turn.Speaker == advice.SpeakerUser {
				label = "You"
			}
			fmt.Fprintf(os.Stderr, "%s> %s\n", label, turn.Text)
		}
		fmt.Fprintln(os.Stderr, "")
		return true

	case "/grounding":
		fmt.Fprintln(os.Stderr, sess.Grounding())
		fmt.Fprintln(os.Stderr, "")
		return true

	case "/clear", "/c":
		fmt.Print("\033[H\033[2J")
		return true

	case "/exit", "/quit", "/q":
		fmt.Fprintln(os.Stderr, "Goodbye!")
		return false

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s (type '/help' for available commands)\n", command)
		return true
	}
}

// replyPrinter prints advisor replies, rendering markdown when stdout is a terminal.
type replyPrinter struct {
	renderer *glamour.TermRenderer
}

func newReplyPrinter(raw bool) *replyPrinter {
	if raw || !isatty.IsTerminal(os.Stdout.Fd()) {
		return &replyPrinter{}
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return &replyPrinter{}
	}
	return &replyPrinter{renderer: renderer}
}

func (p *replyPrinter) print(text string) {
	if p.renderer != nil {
		if rendered, err := p.renderer.Render(text); err == nil {
			fmt.Print(rendered)
			return
		}
	}
	fmt.Printf("\nAdvisor> %s\n\n", text)
}

// shortID returns the first 8 characters of a session id
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&model, "model", "m", "", "Model to use (format: provider:model, e.g., gemini:gemini-2.0-flash)")
	chatCmd.Flags().StringArray("arg", []string{}, "Key-value pairs for the prompt template (format: key:value)")
	chatCmd.Flags().BoolVar(&rawText, "raw", false, "Print replies as plain text instead of rendered markdown")
}
