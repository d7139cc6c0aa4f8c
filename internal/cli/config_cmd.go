package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/morezaGeek/Server-Monitor/internal/config"
	"github.com/morezaGeek/Server-Monitor/internal/errors"
	"github.com/morezaGeek/Server-Monitor/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength applies to dashboard passwords entered at init.
const minPasswordLength = 8

const redacted = "<redacted>"

// InitOptions holds options for the config init command.
type InitOptions struct {
	Path           string // Where to write; defaults to ./servermon.yaml
	Listen         string // Pre-specified listen address
	Username       string // Dashboard user; empty disables the gate
	PasswordStdin  bool   // Read the dashboard password from stdin
	NoTelemetry    bool   // Disable the resource sampler
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts
}

var (
	initOpts    InitOptions
	showSecrets bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the servermon config",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create servermon.yaml",
	Long: `Create a servermon.yaml with dashboard credentials.

The password is stored as a bcrypt hash. Without --non-interactive the
command prompts for every value.

Examples:
  servermon config init
  echo "$PASS" | servermon config init --non-interactive --username admin --password-stdin
  servermon config init --path /etc/servermon/config.yaml --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Init(initOpts, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Long: `Print the config servermon would run with: the file found by the
usual search plus SERVERMON_* environment overrides. The password hash
is redacted unless --show-secrets is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig(cmd.OutOrStdout(), cfgFile, showSecrets)
	},
}

func init() {
	configInitCmd.Flags().StringVar(&initOpts.Path, "path", "", "output path (default ./servermon.yaml)")
	configInitCmd.Flags().StringVar(&initOpts.Listen, "listen", "", "listen address")
	configInitCmd.Flags().StringVar(&initOpts.Username, "username", "", "dashboard username")
	configInitCmd.Flags().BoolVar(&initOpts.PasswordStdin, "password-stdin", false, "read the dashboard password from stdin")
	configInitCmd.Flags().BoolVar(&initOpts.NoTelemetry, "no-telemetry", false, "disable resource telemetry")
	configInitCmd.Flags().BoolVarP(&initOpts.Overwrite, "force", "f", false, "overwrite existing config")
	configInitCmd.Flags().BoolVar(&initOpts.NonInteractive, "non-interactive", false, "skip prompts")

	configShowCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print the password hash")

	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// Init writes a new config file from opts, prompting for anything missing
// unless NonInteractive is set.
func Init(opts InitOptions, in io.Reader, out io.Writer) error {
	configPath := opts.Path
	if configPath == "" {
		configPath = filepath.Join(".", config.ConfigFileName)
	}

	if _, err := os.Stat(configPath); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", configPath),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Config file '%s' already exists. Overwrite?", configPath)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}

	cfg := config.DefaultConfig()
	if opts.Listen != "" {
		cfg.Server.Listen = opts.Listen
	}
	cfg.Telemetry.Enabled = !opts.NoTelemetry

	var password string
	if opts.PasswordStdin {
		pw, err := readPasswordLine(in)
		if err != nil {
			return err
		}
		password = pw
	}

	username := opts.Username
	if opts.NonInteractive {
		if username != "" && password == "" {
			return errors.New(errors.ErrConfig,
				"A dashboard password is required with --username",
				"Pipe it in with --password-stdin")
		}
	} else {
		if err := promptInit(cfg, &username, &password); err != nil {
			return err
		}
	}

	if username != "" {
		if err := validatePassword(password); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Dashboard password rejected",
				fmt.Sprintf("Use at least %d characters", minPasswordLength))
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to hash the dashboard password",
				"Passwords are limited to 72 bytes")
		}
		cfg.Dashboard.Username = username
		cfg.Dashboard.PasswordHash = string(hash)
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}
	if err := config.Save(configPath, cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+configPath,
			"Check the directory is writable")
	}

	fmt.Fprintf(out, "%s Created %s\n", ui.SymbolSuccess, configPath)
	if !cfg.Dashboard.GateEnabled() {
		fmt.Fprintf(out, "%s No dashboard credentials set; anyone who can reach %s gets a shell prompt\n",
			ui.SymbolWarning, cfg.Server.Listen)
	}
	fmt.Fprintln(out, "\nNext: servermon serve")
	return nil
}

func promptInit(cfg *config.Config, username, password *string) error {
	listen := cfg.Server.Listen
	enableTelemetry := cfg.Telemetry.Enabled
	var confirm string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Listen address").
				Description("host:port the dashboard binds to").
				Placeholder(":8080").
				Value(&listen).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("listen address is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard username").
				Description("Leave empty to run without an access gate (not recommended)").
				Value(username).
				Validate(func(s string) error {
					if strings.ContainsAny(s, ": \t\n") {
						return fmt.Errorf("username cannot contain colons or whitespace")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Dashboard password").
				EchoMode(huh.EchoModePassword).
				Value(password).
				Validate(validatePassword),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&confirm).
				Validate(func(s string) error {
					if s != *password {
						return fmt.Errorf("passwords don't match")
					}
					return nil
				}),
		).WithHideFunc(func() bool { return strings.TrimSpace(*username) == "" }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Collect CPU, memory, disk and network telemetry?").
				Value(&enableTelemetry),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive flag")
	}

	cfg.Server.Listen = strings.TrimSpace(listen)
	cfg.Telemetry.Enabled = enableTelemetry
	*username = strings.TrimSpace(*username)
	return nil
}

func validatePassword(pw string) error {
	if len(pw) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if len(pw) > 72 {
		return fmt.Errorf("password must be at most 72 bytes")
	}
	return nil
}

// readPasswordLine reads the first line of in, without the line ending.
func readPasswordLine(in io.Reader) (string, error) {
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read the password from stdin",
			"Pipe the password in: echo \"$PASS\" | servermon config init --password-stdin")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func showConfig(out io.Writer, explicit string, secrets bool) error {
	cfg, path, err := config.LoadOrDefault(explicit)
	if err != nil {
		return err
	}
	if !secrets && cfg.Dashboard.PasswordHash != "" {
		cfg.Dashboard.PasswordHash = redacted
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to render config", "")
	}

	source := path
	if source == "" {
		source = "built-in defaults"
	}
	fmt.Fprintf(out, "# source: %s\n", source)
	_, err = out.Write(data)
	return err
}
