// File: cmd/version.go
package cmd

import "github.com/spf13/cobra"

// Version is the application version.
// This value is intended to be set at build time using ldflags.
// Example: go build -ldflags "-X github.com/uitest-io/uitest/cmd.Version=1.0.0"
var Version = "1.0"

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Prints the uitest version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(Version)
		},
	})
}
