package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type CancelOptions struct {
	GlobalOptions
}

func DefaultCancelOptions() *CancelOptions {
	return &CancelOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdCancel() *cobra.Command {
	o := DefaultCancelOptions()
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the job the daemon is currently running.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *CancelOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()
	if err := c.CancelActive(ctx); err != nil {
		return fmt.Errorf("requesting cancel: %w", err)
	}
	fmt.Println("cancel requested")
	return nil
}
