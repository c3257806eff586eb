package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/blue-harrier/irisbridge/internal/config"
	"github.com/blue-harrier/irisbridge/internal/iris"
)

var (
	loginEnvFile string
	loginCheck   bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Capture API credentials into a .env file",
	Long: `Interactively capture CrowdStrike Falcon and IRIS credentials and write
them to a .env file, which every other command loads automatically.
Secrets are read without terminal echo.

Existing values in the file are kept unless a new value is entered.`,
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVar(&loginEnvFile, "env-file", ".env", "path of the .env file to write")
	loginCmd.Flags().BoolVar(&loginCheck, "check", false, "verify IRIS connectivity after writing")
}

func runLogin(cmd *cobra.Command, args []string) error {
	// Start from whatever the file already holds so a partial re-login
	// doesn't wipe the rest.
	env, err := godotenv.Read(loginEnvFile)
	if err != nil {
		env = map[string]string{}
	}

	prompts := []struct {
		key    string
		label  string
		secret bool
	}{
		{config.EnvFalconClientID, "Falcon client ID", false},
		{config.EnvFalconClientSecret, "Falcon client secret", true},
		{config.EnvFalconRegion, "Falcon cloud region (e.g. us-1)", false},
		{config.EnvIrisBaseURL, "IRIS base URL", false},
		{config.EnvIrisAPIKey, "IRIS API key", true},
		{config.EnvIrisCustomerID, "IRIS customer id", false},
	}

	for _, p := range prompts {
		label := p.label
		if current := env[p.key]; current != "" {
			if p.secret {
				label += " [keep current]"
			} else {
				label += fmt.Sprintf(" [%s]", current)
			}
		}

		var value string
		var err error
		if p.secret {
			value, err = promptSecret(label + ": ")
		} else {
			value, err = promptLine(label + ": ")
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", p.label, err)
		}
		if value != "" {
			env[p.key] = value
		}
	}

	if err := godotenv.Write(env, loginEnvFile); err != nil {
		return fmt.Errorf("write %s: %w", loginEnvFile, err)
	}
	if err := os.Chmod(loginEnvFile, 0o600); err != nil {
		return fmt.Errorf("restrict %s permissions: %w", loginEnvFile, err)
	}
	fmt.Printf("credentials written to %s\n", loginEnvFile)

	if !loginCheck {
		return nil
	}

	client, err := iris.NewClient(iris.Config{
		BaseURL: env[config.EnvIrisBaseURL],
		APIKey:  env[config.EnvIrisAPIKey],
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := client.Verify(ctx); err != nil {
		return fmt.Errorf("IRIS check failed: %w", err)
	}
	fmt.Println("IRIS connection OK")
	return nil
}

// promptLine reads one echoed line from stdin.
func promptLine(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptSecret reads a value without echoing to the terminal.
func promptSecret(prompt string) (string, error) {
	fmt.Print(prompt)

	fd := syscall.Stdin
	if term.IsTerminal(fd) {
		secretBytes, err := term.ReadPassword(fd)
		fmt.Println() // Add newline after secret input
		if err != nil {
			return "", err
		}
		return string(secretBytes), nil
	}

	// Fallback for non-terminal input (e.g., piped input)
	return promptLine("")
}
