package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	User    string
	Session string
}

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "chatcli",
		Short: "Talk to the contract assistant from a terminal",
		Long: `chatcli runs the contract assistant in-process against built-in sample
data, so conversations can be tried without a database or a server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "write component logs to logs/chatcli.log")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.User, "user", "cli", "user id the turns are attributed to")
	cmd.PersistentFlags().StringVar(&opts.Session, "session", "", "session id (default: a new one)")

	cmd.AddCommand(NewReplCommand(opts))
	cmd.AddCommand(NewAskCommand(opts))
	cmd.AddCommand(NewAuditTailCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
