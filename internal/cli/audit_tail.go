package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"bcct-chatbot-be/pkg/events"
	pktNats "bcct-chatbot-be/pkg/nats"

	"github.com/spf13/cobra"
)

type AuditTailOptions struct {
	*RootOptions
	NatsURL string
	Durable string
}

func NewAuditTailCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditTailOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "audit-tail",
		Short: "Print audit events exported by a running server",
		Long: `Print contract and checklist creation events from the NATS stream.

Example:
  chatcli audit-tail --nats nats://localhost:4222`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return tailAudit(ctx, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.NatsURL, "nats", "nats://localhost:4222", "NATS server URL")
	cmd.Flags().StringVar(&opts.Durable, "durable", "chatcli-audit-tail", "durable consumer name")

	return cmd
}

func tailAudit(ctx context.Context, opts *AuditTailOptions, cmd *cobra.Command) error {
	sub, err := pktNats.NewSubscriber(opts.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	out := cmd.OutOrStdout()
	err = sub.Subscribe(ctx, events.SubjectPrefix+">", opts.Durable, func(_ context.Context, e events.Event) error {
		if opts.Format == "json" {
			return json.NewEncoder(out).Encode(map[string]interface{}{
				"type":    e.EventType(),
				"at":      e.Timestamp(),
				"payload": e.Payload(),
			})
		}
		botColor.Fprintf(out, "%s  %s", e.Timestamp().Format("2006-01-02 15:04:05"), e.EventType())
		fmt.Fprintf(out, "  contract=%v session=%v user=%v\n", e.Payload()["contract_id"], e.Payload()["session_id"], e.Payload()["user_id"])
		return nil
	})
	if err != nil {
		return err
	}

	dimColor.Fprintln(out, "waiting for events, Ctrl-C to stop")
	<-ctx.Done()
	return nil
}
