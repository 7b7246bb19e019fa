package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"mdview/pkg/errors"

	"github.com/fatih/color"
)

// IsAssumeYes reports whether --yes was given.
func IsAssumeYes() bool {
	return assumeYesFlag
}

// ConfirmPrompt asks a yes/no question on stderr and reads the answer from
// stdin, so structured output on stdout stays clean.
func ConfirmPrompt(message string) (bool, error) {
	return confirmFrom(os.Stdin, message)
}

func confirmFrom(in io.Reader, message string) (bool, error) {
	if assumeYesFlag {
		return true, nil
	}

	_, _ = color.New(color.FgYellow).Fprintf(os.Stderr, "%s [y/N]: ", message)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// ConfirmDestructive describes action and its details, sorted by key, then
// asks to continue.
func ConfirmDestructive(action string, details map[string]string) (bool, error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Warning: about to %s\n", action)

	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", k, details[k])
	}
	if len(keys) > 0 {
		fmt.Fprintln(os.Stderr)
	}

	return ConfirmPrompt("Continue?")
}

// RequireConfirmation returns an error unless the user confirms.
func RequireConfirmation(action string, details map[string]string) error {
	confirmed, err := ConfirmDestructive(action, details)
	if err != nil {
		return errors.NewWithError(errors.ExitCodeGeneral, "failed to read confirmation", err)
	}
	if !confirmed {
		return errors.New(errors.ExitCodeGeneral, "operation canceled by user")
	}
	return nil
}
