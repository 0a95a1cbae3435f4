package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func NewReplCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive conversation",
		Long: `Start an interactive conversation with the assistant.

Type "exit" or press Ctrl-D to leave. The session lives until the REPL exits.

Example:
  chatcli repl
  chatcli repl --user vkumar --format json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer eng.Close()
			return runRepl(cmd.Context(), eng, cmd.InOrStdin(), cmd.OutOrStdout(), rootOpts.Format)
		},
	}
}

func runRepl(ctx context.Context, eng *engine, in io.Reader, out io.Writer, format string) error {
	dimColor.Fprintf(out, "session %s, type 'exit' to quit\n", eng.sessionID)
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch text {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		resp := eng.chat().ProcessUserInput(ctx, text, eng.sessionID, eng.userID)
		if err := render(out, resp, format); err != nil {
			return err
		}
	}
}

func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>...",
		Short: "Send one message and print the answer",
		Long: `Send one message and print the answer.

Example:
  chatcli ask show contract 123456
  chatcli ask --format json "failed parts for 123456"`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd.Context(), rootOpts)
			if err != nil {
				return err
			}
			defer eng.Close()
			resp := eng.chat().ProcessUserInput(cmd.Context(), strings.Join(args, " "), eng.sessionID, eng.userID)
			return render(cmd.OutOrStdout(), resp, rootOpts.Format)
		},
	}
}
