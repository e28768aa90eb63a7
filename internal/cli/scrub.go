package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/cassette"
	"github.com/tapedeck/tapedeck/internal/process"
	"github.com/tapedeck/tapedeck/internal/recorder"
)

// ScrubOptions holds flags for the scrub command.
type ScrubOptions struct {
	*RootOptions
	Output string
}

// NewScrubCommand creates the scrub command. It re-runs the standard
// sanitizers (header deny-list, subscription/tenant and deployment
// replacers) over an already-recorded cassette, for recordings made
// before a sanitizer was added or tightened.
func NewScrubCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScrubOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scrub <cassette.yaml>",
		Short: "Re-apply sanitizers to an existing cassette",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrub(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write result to this path instead of rewriting in place")
	return cmd
}

func runScrub(cmd *cobra.Command, opts *ScrubOptions, path string) error {
	c, err := cassette.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load cassette", err)
	}

	pipe := process.NewPipeline(
		process.NewSubscriptionIDReplacer(),
		process.NewDeploymentNameReplacer(),
	)

	dropped := 0
	kept := c.Interactions[:0]
	for _, interaction := range c.Interactions {
		req := pipe.ProcessRequest(&interaction.Request)
		if req == nil {
			dropped++
			continue
		}
		interaction.Request = *req
		interaction.Response = *pipe.ProcessResponse(&interaction.Response)

		recorder.ScrubHeaders(interaction.Request.Headers)
		recorder.ScrubHeaders(interaction.Response.Headers)
		kept = append(kept, interaction)
	}
	c.Interactions = kept
	for i, interaction := range c.Interactions {
		interaction.ID = i
	}

	out := opts.Output
	if out == "" {
		out = path
	}
	scrubbed := cassette.New(c.Name, out)
	scrubbed.Version = c.Version
	scrubbed.RecordingID = c.RecordingID
	scrubbed.Interactions = c.Interactions
	if err := scrubbed.Save(); err != nil {
		return WrapExitError(ExitCommandError, "write scrubbed cassette", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Success(fmt.Sprintf("scrubbed %s: %d interactions kept, %d dropped", out, len(c.Interactions), dropped))
}
