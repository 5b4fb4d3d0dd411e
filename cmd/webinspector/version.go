package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"webInspector/pkg/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if term.IsTerminal(int(os.Stdout.Fd())) {
				fmt.Fprint(out, figure.NewFigure("webinspector", "doom", true).String())
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, version.GetVersion())
		},
	}
}
