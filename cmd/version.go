package cmd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(versionString(version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// versionString normalizes a build version such as "v1.2" to "1.2.0" and
// leaves anything that is not semver untouched.
func versionString(raw string) string {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return fmt.Sprintf("%s version: %s", app, raw)
	}
	return fmt.Sprintf("%s version: %s", app, v.String())
}
