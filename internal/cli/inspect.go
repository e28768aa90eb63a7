package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tapedeck/tapedeck/internal/cassette"
)

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
}

// InteractionSummary is one line of inspect output.
type InteractionSummary struct {
	ID           int    `json:"id"`
	Method       string `json:"method"`
	URL          string `json:"url"`
	Status       int    `json:"status"`
	RequestBody  int    `json:"request_body_bytes"`
	ResponseBody int    `json:"response_body_bytes"`
}

// InspectResult holds the complete inspect output.
type InspectResult struct {
	Name         string               `json:"name"`
	Version      int                  `json:"version"`
	RecordingID  string               `json:"recording_id,omitempty"`
	Interactions []InteractionSummary `json:"interactions"`
}

// String renders the text format.
func (r InspectResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cassette %s (version %d", r.Name, r.Version)
	if r.RecordingID != "" {
		fmt.Fprintf(&b, ", recording %s", r.RecordingID)
	}
	fmt.Fprintf(&b, "): %d interactions\n", len(r.Interactions))
	for _, i := range r.Interactions {
		fmt.Fprintf(&b, "  %3d  %-7s %s -> %d (req %dB, resp %dB)\n",
			i.ID, i.Method, i.URL, i.Status, i.RequestBody, i.ResponseBody)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <cassette.yaml>",
		Short: "Summarize the interactions in a cassette file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, opts, args[0])
		},
	}
	return cmd
}

func runInspect(cmd *cobra.Command, opts *InspectOptions, path string) error {
	c, err := cassette.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "load cassette", err)
	}

	result := InspectResult{
		Name:        c.Name,
		Version:     c.Version,
		RecordingID: c.RecordingID,
	}
	for _, interaction := range c.Interactions {
		reqBody, _ := interaction.Request.RawBody()
		respBody, _ := interaction.Response.RawBody()
		result.Interactions = append(result.Interactions, InteractionSummary{
			ID:           interaction.ID,
			Method:       interaction.Request.Method,
			URL:          interaction.Request.URL,
			Status:       interaction.Response.Status,
			RequestBody:  len(reqBody),
			ResponseBody: len(respBody),
		})
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	return formatter.Success(result)
}
