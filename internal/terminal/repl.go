// Package terminal is the interactive prompt for asking questions from a shell.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"rpa-assistant/internal/chatbot"
	"rpa-assistant/internal/chatbot/resolver"
)

// ErrUserExit is returned by ProcessInput when the user asks to leave.
var ErrUserExit = errors.New("user requested exit")

const prompt = "rpa> "

type REPL struct {
	bot     *chatbot.Bot
	out     io.Writer
	timeout time.Duration
}

// NewREPL writes answers to out. A zero timeout leaves questions unbounded.
func NewREPL(bot *chatbot.Bot, out io.Writer, timeout time.Duration) *REPL {
	return &REPL{bot: bot, out: out, timeout: timeout}
}

// Run reads one question per line until EOF, /quit or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(r.out, prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		if err := r.ProcessInput(ctx, scanner.Text()); err != nil {
			if errors.Is(err, ErrUserExit) {
				return nil
			}
			return err
		}
		fmt.Fprint(r.out, prompt)
	}
	fmt.Fprintln(r.out)
	return scanner.Err()
}

func (r *REPL) ProcessInput(ctx context.Context, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if strings.HasPrefix(input, "/") {
		shouldExit, err := r.HandleCommand(input)
		if err != nil {
			return err
		}
		if shouldExit {
			return ErrUserExit
		}
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	fmt.Fprintln(r.out, r.bot.Respond(ctx, input))
	return nil
}

func (r *REPL) HandleCommand(cmd string) (bool, error) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false, nil
	}

	switch parts[0] {
	case "/exit", "/quit":
		return true, nil

	case "/help":
		r.DisplayHelp()

	case "/intents":
		r.DisplayIntents()

	case "/check":
		r.DisplayConflicts()

	default:
		fmt.Fprintf(r.out, "Unknown command: %s (try /help)\n", parts[0])
	}
	return false, nil
}

func (r *REPL) DisplayHelp() {
	fmt.Fprint(r.out, `
Ask a question about bot executions, for example:
  What's the status of job 1234?
  Which bots are currently running?
  How many jobs failed this week?

Commands:
  /help          show this help
  /intents       list the questions the assistant understands
  /check         replay catalog examples and report shadowed intents
  /exit, /quit   leave
`)
}

func (r *REPL) DisplayIntents() {
	for _, def := range r.bot.Catalog().Definitions() {
		fmt.Fprintf(r.out, "  • %s\n", def.Name)
		for _, ex := range def.Examples {
			fmt.Fprintf(r.out, "      %s\n", ex)
		}
	}
}

func (r *REPL) DisplayConflicts() {
	conflicts := resolver.New(r.bot.Catalog()).CheckShadowing()
	if len(conflicts) == 0 {
		fmt.Fprintln(r.out, "All catalog examples resolve to their own intent.")
		return
	}
	for _, c := range conflicts {
		fmt.Fprintf(r.out, "  ! %s\n", c)
	}
}
