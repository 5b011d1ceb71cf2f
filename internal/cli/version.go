package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the testforge version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("testforge %s (%s/%s)\n", Version, runtime.GOOS, runtime.GOARCH)
		},
	}
}
