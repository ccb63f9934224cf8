package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
	"sigs.k8s.io/yaml"

	"github.com/compactd/compactd/internal/client"
	"github.com/compactd/compactd/internal/coordinator"
)

const (
	jsonFormat = "json"
	yamlFormat = "yaml"
)

var (
	legalOutputTypes = []string{jsonFormat, yamlFormat}
)

const (
	JobsKind     = "jobs"
	QueueKind    = "queue"
	LibraryKind  = "library"
	SettingsKind = "settings"
	ArchiveKind  = "archive"
)

var legalResourceKinds = []string{JobsKind, QueueKind, LibraryKind, SettingsKind, ArchiveKind}

type GetOptions struct {
	GlobalOptions

	Output string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:   fmt.Sprintf("get (%s)", strings.Join(legalResourceKinds, " | ")),
		Short: "Display one daemon resource.",
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	if !funk.Contains(legalResourceKinds, args[0]) {
		return fmt.Errorf("resource kind must be one of %s", strings.Join(legalResourceKinds, ", "))
	}

	if len(o.Output) > 0 && !funk.Contains(legalOutputTypes, o.Output) {
		return fmt.Errorf("output format must be one of %s", strings.Join(legalOutputTypes, ", "))
	}

	return nil
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()

	switch args[0] {
	case JobsKind:
		return o.runJobs(ctx, c)
	case QueueKind:
		return o.runQueue(ctx, c)
	case LibraryKind:
		return o.runLibrary(ctx, c)
	case SettingsKind:
		return o.runSettings(ctx, c)
	case ArchiveKind:
		return o.runArchive(ctx, c)
	default:
		return fmt.Errorf("unknown resource kind %s", args[0])
	}
}

func (o *GetOptions) runJobs(ctx context.Context, c *client.Client) error {
	history, err := c.History(ctx)
	if err != nil {
		return fmt.Errorf("listing jobs: %w", err)
	}
	active, err := c.ActiveJob(ctx)
	if err != nil && !errors.Is(err, client.ErrNoActiveJob) {
		return fmt.Errorf("reading active job: %w", err)
	}

	jobs := make([]coordinator.Job, 0, len(history)+1)
	if active != nil {
		jobs = append(jobs, *active)
	}
	jobs = append(jobs, history...)

	if len(o.Output) > 0 {
		return printEncoded(jobs, o.Output)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "KIND\tNAME\tPATH\tSTATUS\tPROGRESS")
	for i := range jobs {
		j := &jobs[i]
		progress := ""
		if j.Progress != nil {
			progress = fmt.Sprintf("%.0f%%", j.Progress.Percent)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", j.Kind, j.Name, j.Path, j.Status, progress)
	}
	return w.Flush()
}

func (o *GetOptions) runQueue(ctx context.Context, c *client.Client) error {
	queue, err := c.Queue(ctx)
	if err != nil {
		return fmt.Errorf("reading queue: %w", err)
	}

	if len(o.Output) > 0 {
		return printEncoded(queue, o.Output)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "NAME\tPATH\tSTATUS")
	for _, e := range queue.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Path, e.Status)
	}
	return w.Flush()
}

func (o *GetOptions) runLibrary(ctx context.Context, c *client.Client) error {
	library, err := c.Library(ctx)
	if err != nil {
		return fmt.Errorf("listing library: %w", err)
	}

	if len(o.Output) > 0 {
		return printEncoded(library.Games, o.Output)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "NAME\tPLATFORM\tSIZE\tCOMPRESSED\tSAVINGS")
	for i := range library.Games {
		g := &library.Games[i]
		savings := ""
		if g.Compressed {
			savings = fmt.Sprintf("%.1f%% (%s)", g.SavingsPercent(), g.Algorithm)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", g.Name, g.Platform, formatBytes(g.SizeOnDisk), g.Compressed, savings)
	}
	return w.Flush()
}

func (o *GetOptions) runSettings(ctx context.Context, c *client.Client) error {
	doc, err := c.Settings(ctx)
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	if len(o.Output) > 0 {
		return printEncoded(doc, o.Output)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintf(w, "autoCompressEnabled\t%t\n", doc.AutoCompressEnabled)
	fmt.Fprintf(w, "cpuThresholdPercent\t%d\n", doc.CPUThresholdPercent)
	fmt.Fprintf(w, "idleDurationMinutes\t%d\n", doc.IdleDurationMinutes)
	fmt.Fprintf(w, "cooldownMinutes\t%d\n", doc.CooldownMinutes)
	fmt.Fprintf(w, "algorithm\t%s\n", doc.Algorithm)
	fmt.Fprintf(w, "customFolders\t%s\n", strings.Join(doc.CustomFolders, ", "))
	fmt.Fprintf(w, "excludedPaths\t%s\n", strings.Join(doc.ExcludedPaths, ", "))
	fmt.Fprintf(w, "theme\t%s\n", doc.Theme)
	fmt.Fprintf(w, "notificationsEnabled\t%t\n", doc.NotificationsEnabled)
	return w.Flush()
}

func (o *GetOptions) runArchive(ctx context.Context, c *client.Client) error {
	records, err := c.Archive(ctx)
	if err != nil {
		return fmt.Errorf("listing archive: %w", err)
	}

	if len(o.Output) > 0 {
		return printEncoded(records, o.Output)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "KIND\tNAME\tSTATUS\tFINISHED")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.Kind, rec.Name, rec.Status, rec.FinishedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func printEncoded(v any, format string) error {
	switch format {
	case jsonFormat:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Printf("%s\n", string(data))
	case yamlFormat:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshalling resource: %w", err)
		}
		fmt.Printf("%s\n", string(data))
	}
	return nil
}

func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
