// Command validate provides a small CLI that validates halfway YAML
// configuration files. Files are given as arguments; without arguments it
// checks every *.yaml and *.yml file in the configs directory. It checks:
//   - YAML structure and field constraints (via the config loader)
//   - Server URL scheme (http or https)
//   - Store backend settings (directory, TTL support)
//   - Animation settings that would disable connectors
//   - The identity token, when one is configured
package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/halfway/lobby/config"
	"github.com/wricardo/halfway/lobby/identity"
)

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; Notes are informational.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Notes  []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	cfg, err := config.LoadFile(filePath)
	if err != nil {
		switch {
		case errors.Is(err, config.ErrConfigNotFound):
			result.fail("File not found: %s", filePath)
		case errors.Is(err, config.ErrInvalidConfig):
			result.fail("%s", strings.TrimPrefix(err.Error(), config.ErrInvalidConfig.Error()+": "))
		default:
			result.fail("Invalid YAML: %v", err)
		}
		return result
	}

	validateServer(cfg, &result)
	validateSession(cfg, &result)
	validateAnimation(cfg, &result)
	validateAuth(cfg, &result)

	return result
}

func validateServer(cfg *config.Config, result *ValidationResult) {
	u, err := url.Parse(cfg.Server.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result.fail("server.url must be an http or https URL, got %q", cfg.Server.URL)
		return
	}
	result.note("✓ Server %s (WebSocket path %s)", cfg.Server.URL, cfg.WebSocketPath())
}

func validateSession(cfg *config.Config, result *ValidationResult) {
	switch cfg.Session.Store {
	case "memory":
		result.note("✓ Memory store: guest id and panels are forgotten on exit")
	case "file", "badger":
		if info, err := os.Stat(cfg.Session.Dir); err == nil && !info.IsDir() {
			result.fail("session.dir %s is not a directory", cfg.Session.Dir)
			return
		}
		result.note("✓ %s store in %s", cfg.Session.Store, cfg.Session.Dir)
		if cfg.Session.TTL > 0 {
			result.note("✓ Entries expire after %s", cfg.Session.TTL)
		}
	}
}

func validateAnimation(cfg *config.Config, result *ValidationResult) {
	if cfg.Animation.Enabled && cfg.Animation.Duration == 0 {
		result.note("animation.enabled is set but duration is 0, connectors will not animate")
	}
	if cfg.Points.Rate == 0 {
		result.note("points.rate is 0, point updates are not paced")
	}
}

func validateAuth(cfg *config.Config, result *ValidationResult) {
	if cfg.Auth.IDToken == "" {
		result.note("✓ No identity token, joining as a guest")
		return
	}

	user, err := identity.NewTokenProvider().SignIn(cfg.Auth.IDToken)
	if err != nil {
		result.fail("auth.id_token: %v", err)
		return
	}
	result.note("✓ Signed in as %s", user.ID)
}

// configFiles returns the files to validate from args or the configs directory.
func configFiles(args []string, configDir string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(configDir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

// main validates each configuration file, printing a concise report and
// exiting with non-zero status if any are invalid.
func main() {
	files, err := configFiles(os.Args[1:], "configs")
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("No configuration files found")
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Println("  ❌ " + err)
			}
		}
		for _, info := range result.Notes {
			fmt.Println("  " + info)
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
