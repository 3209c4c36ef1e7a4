package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/v0xg/stepscript/internal/compiler"
	"github.com/v0xg/stepscript/internal/mcp"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the script generator as an MCP tool over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := a.cfg.Service
			srv := mcp.NewServer(mcp.ServerConfig{
				Name:            svc.Name,
				Version:         svc.Version,
				ProtocolVersion: svc.ProtocolVersion,
				ToolName:        svc.ToolName,
				Compilers: func(target string) (*compiler.Compiler, error) {
					sc := a.cfg.Script
					if target != "" {
						sc.Target = target
					}
					return a.compilerFor(sc)
				},
				Store:  a.store(),
				Logger: a.log,
				In:     a.in,
				Out:    a.out,
			})
			return srv.Run()
		},
	}
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "%s %s (MCP %s)\n", a.cfg.Service.Name, a.cfg.Service.Version, a.cfg.Service.ProtocolVersion)
		},
	}
}
