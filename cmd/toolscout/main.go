// toolscout discovers and describes the C/C++ compilers installed on the
// host, and resolves compiler invocations into intellisense configurations.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/fearthecowboy/toolscout/options"
	"github.com/fearthecowboy/toolscout/pkg/log"
	"github.com/fearthecowboy/toolscout/toolset"
)

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "toolscout",
		Usage: "detect and describe C/C++ toolsets",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "root",
				Usage: "directory to load toolset.*.json definitions from",
			},
			&cli.StringFlag{
				Name:  "storage",
				Usage: "directory for the persistent toolset cache",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
				Value: "info",
			},
		},
		Commands: []*cli.Command{
			discoverCommand(),
			identifyCommand(),
			analyzeCommand(),
		},
	}
}

func newEngine(cliCtx *cli.Context) (*toolset.Engine, error) {
	l := log.NewWithLevel(cliCtx.String("log-level"))

	opts := options.NewOptions(l)
	opts.StoragePath = cliCtx.String("storage")

	engine := toolset.NewEngine(l, opts)

	if _, err := engine.Initialize(cliCtx.Context, cliCtx.StringSlice("root"), nil); err != nil {
		return nil, err
	}

	return engine, nil
}

func discoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "search the host for known toolsets",
		Action: func(cliCtx *cli.Context) error {
			engine, err := newEngine(cliCtx)
			if err != nil {
				return err
			}

			found, err := engine.GetToolsets(cliCtx.Context)
			if err != nil {
				return err
			}

			for path, t := range found {
				fmt.Printf("%s\t%s\n", t.Name(), path)
			}

			return engine.FlushCache()
		},
	}
}

func identifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "identify",
		Usage:     "identify a compiler by path or by name pattern",
		ArgsUsage: "<path-or-pattern>",
		Action: func(cliCtx *cli.Context) error {
			if cliCtx.NArg() != 1 {
				return cli.Exit("expected exactly one path or pattern", 1)
			}

			engine, err := newEngine(cliCtx)
			if err != nil {
				return err
			}

			t, err := engine.IdentifyToolset(cliCtx.Context, cliCtx.Args().First())
			if err != nil {
				return err
			}

			if t == nil {
				return cli.Exit("no matching toolset", 1)
			}

			fmt.Printf("%s\t%s\n", t.Name(), t.CompilerPath)

			return engine.FlushCache()
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "resolve a compiler invocation into an intellisense configuration",
		ArgsUsage: "<compiler> [-- <args>...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "language",
				Usage: "force the effective language (c or cpp)",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			if cliCtx.NArg() < 1 {
				return cli.Exit("expected a compiler path", 1)
			}

			engine, err := newEngine(cliCtx)
			if err != nil {
				return err
			}

			t, err := engine.IdentifyToolset(cliCtx.Context, cliCtx.Args().First())
			if err != nil {
				return err
			}

			if t == nil {
				return cli.Exit("no matching toolset", 1)
			}

			compilerArgs := cliCtx.Args().Tail()
			if len(compilerArgs) > 0 && compilerArgs[0] == "--" {
				compilerArgs = compilerArgs[1:]
			}

			config, err := t.GetIntellisenseConfiguration(
				context.WithoutCancel(cliCtx.Context),
				compilerArgs,
				&toolset.AnalyzeOptions{Language: cliCtx.String("language")},
			)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(config, "", "  ")
			if err != nil {
				return err
			}

			fmt.Println(string(out))

			return engine.FlushCache()
		},
	}
}
