package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"

	"github.com/compactd/compactd/internal/coordinator"
	"github.com/compactd/compactd/internal/server"
)

type StatusOptions struct {
	GlobalOptions
	Output string
}

func DefaultStatusOptions() *StatusOptions {
	return &StatusOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdStatus() *cobra.Command {
	o := DefaultStatusOptions()
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of a running compactd daemon",
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

func (o *StatusOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *StatusOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *StatusOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}
	return nil
}

// StatusResponse is the information we display about a running daemon.
type StatusResponse struct {
	server.StatusReply
	ActiveJob *coordinator.Job `json:"activeJob,omitempty"`
}

func (o *StatusOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()

	status, err := c.Status(ctx)
	if err != nil {
		return fmt.Errorf("querying daemon at %s: %w", o.ServerUrl, err)
	}

	response := StatusResponse{StatusReply: *status}
	if status.Busy {
		// the slot can empty between the two calls, ignore a miss
		if job, err := c.ActiveJob(ctx); err == nil {
			response.ActiveJob = job
		}
	}

	return o.printStatus(response)
}

func (o *StatusOptions) printStatus(response StatusResponse) error {
	switch o.Output {
	case jsonFormat:
		data, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal status to JSON: %w", err)
		}
		fmt.Println(string(data))
	case yamlFormat:
		data, err := yaml.Marshal(response)
		if err != nil {
			return fmt.Errorf("failed to marshal status to YAML: %w", err)
		}
		fmt.Print(string(data))
	default:
		automation := "stopped"
		if response.AutomationRunning {
			automation = "running"
		}

		fmt.Printf("compactd %s\n", response.Version)
		fmt.Printf("  Status:      %s\n", response.Status)
		fmt.Printf("  Automation:  %s\n", automation)
		fmt.Printf("  Queue:       %d pending\n", response.QueuePending)
		if response.SchedulerPhase != "" {
			fmt.Printf("  Scheduler:   %s\n", response.SchedulerPhase)
		}
		if response.ActiveJob != nil {
			j := response.ActiveJob
			label := j.Path
			if j.Name != "" {
				label = j.Name
			}
			progress := ""
			if j.Progress != nil {
				progress = fmt.Sprintf(" (%.0f%%)", j.Progress.Percent)
			}
			fmt.Printf("  Active Job:  %s %s%s\n", j.Kind, label, progress)
		} else {
			fmt.Printf("  Active Job:  none\n")
		}
	}

	return nil
}
