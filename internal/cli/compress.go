package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"

	"github.com/compactd/compactd/internal/bridge"
)

var legalAlgorithms = []string{
	string(bridge.AlgorithmXpress4K),
	string(bridge.AlgorithmXpress8K),
	string(bridge.AlgorithmXpress16K),
	string(bridge.AlgorithmLZX),
}

type CompressOptions struct {
	GlobalOptions
	Name      string
	Algorithm string
}

func DefaultCompressOptions() *CompressOptions {
	return &CompressOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdCompress() *cobra.Command {
	o := DefaultCompressOptions()
	cmd := &cobra.Command{
		Use:   "compress PATH",
		Short: "Start a compression job for the game installed at PATH.",
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

func (o *CompressOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Algorithm, "algorithm", "a", o.Algorithm, fmt.Sprintf("Compression algorithm. One of: (%s). Defaults to the configured one.", strings.Join(legalAlgorithms, ", ")))
	fs.StringVar(&o.Name, "name", o.Name, "Display name recorded for the job")
}

func (o *CompressOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *CompressOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if len(o.Algorithm) > 0 && !funk.Contains(legalAlgorithms, o.Algorithm) {
		return fmt.Errorf("algorithm must be one of %s", strings.Join(legalAlgorithms, ", "))
	}
	return nil
}

func (o *CompressOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()
	if err := c.StartCompression(ctx, args[0], o.Name, o.Algorithm); err != nil {
		return fmt.Errorf("starting compression: %w", err)
	}
	fmt.Printf("compression of %s accepted\n", args[0])
	return nil
}
