package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DecompressOptions struct {
	GlobalOptions
	Name string
}

func DefaultDecompressOptions() *DecompressOptions {
	return &DecompressOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdDecompress() *cobra.Command {
	o := DefaultDecompressOptions()
	cmd := &cobra.Command{
		Use:   "decompress PATH",
		Short: "Restore the game installed at PATH to its uncompressed form.",
		Args:  cobra.ExactArgs(1),
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

func (o *DecompressOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVar(&o.Name, "name", o.Name, "Display name recorded for the job")
}

func (o *DecompressOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *DecompressOptions) Validate(args []string) error {
	return o.GlobalOptions.Validate(args)
}

func (o *DecompressOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()
	if err := c.StartDecompression(ctx, args[0], o.Name); err != nil {
		return fmt.Errorf("starting decompression: %w", err)
	}
	fmt.Printf("decompression of %s accepted\n", args[0])
	return nil
}
