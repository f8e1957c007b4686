// Package main implements the root level command for the netsplit agent CLI
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/grafana/netsplit/cmd/agent/commands"
	"github.com/grafana/netsplit/pkg/runtime"
)

func main() {
	env := runtime.DefaultEnvironment()
	opts := &commands.Options{}

	rootCmd := commands.BuildRootCmd(opts)
	rootCmd.AddCommand(
		commands.BuildRunCmd(env, opts),
		commands.BuildPartitionCmd(env, opts),
		commands.BuildActivateCmd(env, opts),
		commands.BuildDeactivateCmd(env, opts),
		commands.BuildTargetsCmd(opts),
		commands.BuildCleanupCmd(env),
		commands.BuildVersionCmd(),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
