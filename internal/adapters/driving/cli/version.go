package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("pdfchat version %s\n", version)
		if rev := buildRevision(); rev != "" {
			cmd.Printf("commit %s\n", rev)
		}
		cmd.Printf("%s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

// buildRevision returns the short VCS revision stamped by the Go toolchain,
// or "" for builds outside a checkout.
func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 7 {
			return s.Value[:7]
		}
	}
	return ""
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
