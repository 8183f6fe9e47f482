package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "dev"
	// Commit is set during build
	Commit = "none"
	// BuildDate is set during build
	BuildDate = "unknown"
)

type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the version number",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{AnnotationNoApp: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versionInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}
			return Render(cmd.OutOrStdout(), info, func(w io.Writer) error {
				fmt.Fprintf(w, "tempo %s\n", info.Version)
				fmt.Fprintf(w, "  commit: %s\n", info.Commit)
				fmt.Fprintf(w, "  built:  %s\n", info.BuildDate)
				return nil
			})
		},
	}
}
