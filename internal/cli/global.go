package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/compactd/compactd/internal/client"
)

type GlobalOptions struct {
	ServerUrl string
}

func DefaultGlobalOptions() GlobalOptions {
	server := "http://127.0.0.1:8085"
	if addr := os.Getenv("COMPACTD_ADDRESS"); addr != "" {
		server = "http://" + addr
	}
	return GlobalOptions{
		ServerUrl: server,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ServerUrl, "server-url", "u", o.ServerUrl, "Address of the compactd daemon")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	return nil
}

func (o *GlobalOptions) Client() *client.Client {
	return client.New(o.ServerUrl, 10*time.Second)
}
