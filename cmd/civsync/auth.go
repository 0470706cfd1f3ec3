package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"civsync/pkg/auth"
	"civsync/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Civitai API tokens",
	Long: `Manage stored Civitai API tokens securely.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variable CIVITAI_API_TOKEN (read-only fallback)

An API token is only needed for content hidden from anonymous requests;
public galleries sync without one.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a Civitai API token securely",
	Long: `Store a Civitai API token in the system keychain or encrypted file.

You will be prompted for the token value; input is hidden as you type.
Create a token at https://civitai.com/user/account under "API Keys".

If no name is given the token is stored as the default and used
automatically by sync and download.`,
	Example: `  # Store the default token
  civsync auth login

  # Store a named token and use it explicitly
  civsync auth login work
  civsync sync somecreator --token work`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored API token",
	Long: `Remove a stored Civitai API token.

If no name is given, the default token is removed.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// statusCmd under auth shows stored token state
var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored API tokens",
	Long:  `List stored Civitai API tokens with masked values.`,
	Run:   runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authStatusCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize token manager", err.Error())
		os.Exit(1)
	}

	name := auth.DefaultTokenName
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	reader := bufio.NewReader(os.Stdin)

	// Confirm before overwriting an existing token
	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Token '%s' already exists. Replace it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Print("Civitai API token (input hidden): ")
	value, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read token", err.Error())
		os.Exit(1)
	}

	value = strings.TrimSpace(value)
	if len(value) < 16 {
		ui.PrintError("That doesn't look like a valid API token", "expected at least 16 characters")
		os.Exit(1)
	}

	token := &auth.Token{Name: name, Value: value}
	if err := manager.Store(token); err != nil {
		ui.PrintError("Failed to store token", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess(fmt.Sprintf("Token stored: %s (%s)", name, auth.MaskValue(value)))
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize token manager", err.Error())
		os.Exit(1)
	}

	name := auth.DefaultTokenName
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove token", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Token removed: " + name)
}

func runAuthStatus(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize token manager", err.Error())
		os.Exit(1)
	}

	tokens, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list tokens", err.Error())
		os.Exit(1)
	}

	if envToken := os.Getenv("CIVITAI_API_TOKEN"); envToken != "" {
		ui.PrintInfo("Environment", "CIVITAI_API_TOKEN is set and takes precedence")
	}

	if len(tokens) == 0 {
		ui.PrintInfo("No stored tokens", "Use 'civsync auth login' to add one")
		return
	}

	for _, token := range tokens {
		fmt.Printf("  %s: %s (modified %s)\n",
			token.Name,
			auth.MaskValue(token.Value),
			token.LastModified.Format("2006-01-02 15:04:05"))
	}
}

// readPassword reads a token from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input when stdin is not a terminal
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
