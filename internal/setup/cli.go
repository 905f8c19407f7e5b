package setup

import (
	"flag"
	"fmt"
	"io"
)

const usage = `PharmaGuard MCP Server Setup

Usage:
  mcp-server setup <command> [options]

Commands:
  register    Register the server with the desktop MCP client
  unregister  Remove the server from the desktop MCP client
  status      Show registration and data directory status

Options (register):
  --binary    Path to the server binary (default: this executable)
  --data-dir  Data directory passed as PHARMAGUARD_DATA_DIR
  --config    Client config file (default: per-OS location)
`

// CLI runs the setup subcommands.
type CLI struct {
	out io.Writer
}

// NewCLI creates a setup CLI printing to out.
func NewCLI(out io.Writer) *CLI {
	return &CLI{out: out}
}

// Run executes the setup command named by args[0].
func (c *CLI) Run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return nil
	}

	switch args[0] {
	case "register":
		return c.register(args[1:])
	case "unregister":
		return c.unregister(args[1:])
	case "status":
		return c.status(args[1:])
	case "help", "--help", "-h":
		fmt.Fprint(c.out, usage)
		return nil
	default:
		fmt.Fprint(c.out, usage)
		return fmt.Errorf("unknown setup command: %s", args[0])
	}
}

func (c *CLI) register(args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	fs.SetOutput(c.out)
	var opts Options
	fs.StringVar(&opts.BinaryPath, "binary", "", "server binary")
	fs.StringVar(&opts.DataDir, "data-dir", "", "data directory")
	fs.StringVar(&opts.ConfigPath, "config", "", "client config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := Register(opts)
	if err != nil {
		return fmt.Errorf("failed to register server: %w", err)
	}

	fmt.Fprintf(c.out, "Registered %q in %s\n", ServerName, path)
	fmt.Fprintln(c.out, "Restart the MCP client to load the new configuration.")
	return nil
}

func (c *CLI) unregister(args []string) error {
	fs := flag.NewFlagSet("unregister", flag.ContinueOnError)
	fs.SetOutput(c.out)
	configPath := fs.String("config", "", "client config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	removed, err := Unregister(*configPath)
	if err != nil {
		return fmt.Errorf("failed to unregister server: %w", err)
	}
	if removed {
		fmt.Fprintf(c.out, "Removed %q\n", ServerName)
	} else {
		fmt.Fprintf(c.out, "%q was not registered\n", ServerName)
	}
	return nil
}

func (c *CLI) status(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(c.out)
	configPath := fs.String("config", "", "client config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	status, err := GetStatus(*configPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Client config:  %s\n", status.ConfigPath)
	fmt.Fprintf(c.out, "Registered:     %s\n", yesNo(status.Registered))
	if status.Registered {
		fmt.Fprintf(c.out, "Binary:         %s (found: %s)\n", status.BinaryPath, yesNo(status.BinaryFound))
	}
	fmt.Fprintf(c.out, "Data directory: %s\n", status.DataDir)
	fmt.Fprintf(c.out, "Run archive:    %s\n", yesNo(status.ArchivePresent))
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
