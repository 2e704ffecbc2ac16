package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(version string, d *deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if detailed, _ := cmd.Flags().GetBool("detailed"); detailed {
				fmt.Fprintf(d.stdout, `cyberaudit version information:
  Version:    %s
  Go Version: %s
  OS/Arch:    %s/%s
`, version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
				return
			}
			fmt.Fprintf(d.stdout, "cyberaudit version %s\n", version)
		},
	}
	cmd.Flags().Bool("detailed", false, "show build details")
	return cmd
}
