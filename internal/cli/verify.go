package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/cassette"
	"github.com/tapedeck/tapedeck/internal/recorder"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
}

// NewVerifyCommand creates the verify command for CI: a cassette that
// fails to parse, or still carries deny-listed headers, fails the
// build instead of failing the first replay run.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify <cassette.yaml>...",
		Short: "Validate cassette files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, opts, args)
		},
	}
	return cmd
}

func runVerify(cmd *cobra.Command, opts *VerifyOptions, paths []string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	for _, path := range paths {
		c, err := cassette.Load(path)
		if err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("verify %s", path), err)
		}
		for _, interaction := range c.Interactions {
			for name := range interaction.Request.Headers {
				if recorder.HeaderDenied(name) {
					return WrapExitError(ExitFailure, fmt.Sprintf("verify %s", path),
						fmt.Errorf("interaction %d: deny-listed request header %q present; run scrub", interaction.ID, name))
				}
			}
			for name := range interaction.Response.Headers {
				if recorder.HeaderDenied(name) {
					return WrapExitError(ExitFailure, fmt.Sprintf("verify %s", path),
						fmt.Errorf("interaction %d: deny-listed response header %q present; run scrub", interaction.ID, name))
				}
			}
		}
		if err := formatter.Success(fmt.Sprintf("%s: ok (%d interactions)", path, len(c.Interactions))); err != nil {
			return err
		}
	}
	return nil
}
