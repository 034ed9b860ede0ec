//go:build !windows
// +build !windows

package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "renderdoccmd",
		Short:        "Command-line wrapper for the capture tool",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("process injection is only supported on Windows")
		},
	}
}
