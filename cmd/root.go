package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gynamics/pish/core"
	"github.com/gynamics/pish/core/config"
	"github.com/gynamics/pish/core/interp"
)

var (
	cfgPath     string
	commandStr  string
	interactive bool
)

func loadConfig() (*config.Config, error) {
	path := cfgPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return config.Default(), nil
		}
		path = filepath.Join(home, ".pish.yaml")
	}
	return config.Load(afero.NewOsFs(), path)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pish [flags] [ARGS]",
	Short: "A pure and interesting shell.",
	Long: `pish is a small unix shell built around pipe chaining and
string substitution. Without flags it reads commands from standard
input; run "help" inside the shell for the builtin commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ip := interp.New(os.Args)
		stdio := interp.Stdio()

		// Startup files run before any command, like a profile.
		for _, name := range cfg.Source {
			if status := ip.Run("source "+name, stdio); status != 0 || ip.Exited() {
				os.Exit(processExitCode(ip, status))
			}
		}

		switch {
		case commandStr != "":
			ip.RefreshEnv()
			status := ip.Run(commandStr, stdio)
			os.Exit(processExitCode(ip, status))

		case interactive:
			shell, err := core.NewShell(ip, cfg)
			if err != nil {
				return err
			}

			if cfg.Motd != "" {
				fmt.Fprintln(os.Stdout, cfg.Motd)
			}

			// Ctrl+C during a running pipeline sweeps its children;
			// at the prompt readline surfaces it as an interrupt.
			sigs := make(chan os.Signal, 1)
			signal.Notify(sigs, os.Interrupt)
			go func() {
				for range sigs {
					ip.Interrupt()
				}
			}()

			code := shell.Run()
			// Close before exiting so readline flushes the history
			// file; a deferred close would never run past os.Exit.
			shell.Close()
			os.Exit(code)

		default:
			status := ip.REPL(os.Stdin, stdio)
			os.Exit(processExitCode(ip, status))
		}
		return nil
	},
}

// processExitCode maps an interpreter status onto the process exit
// code: an explicit exit builtin wins, negative statuses become 1.
func processExitCode(ip *interp.Interp, status int) int {
	if ip.Exited() {
		status = ip.ExitCode()
	}
	if status < 0 {
		return 1
	}
	return status & 0xff
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path (default ~/.pish.yaml)")
	rootCmd.Flags().StringVarP(&commandStr, "command", "c", "", "execute the given string and exit")
	rootCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "run an interactive shell")
}
