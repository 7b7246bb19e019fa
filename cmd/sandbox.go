package cmd

import (
	"context"
	"fmt"

	"mdview/pkg/errors"
	"mdview/pkg/ipc"
	"mdview/pkg/sandbox"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CheckOutput is the verdict for one path.
type CheckOutput struct {
	Path    string `json:"path" yaml:"path"`
	Allowed bool   `json:"allowed" yaml:"allowed"`
	Exists  bool   `json:"exists" yaml:"exists"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// RuleOutput is one protected-path rule.
type RuleOutput struct {
	Kind  string `json:"kind" yaml:"kind"`
	Value string `json:"value" yaml:"value"`
}

var sandboxCmd = &cobra.Command{
	Use:   "sandbox",
	Short: "Inspect the workspace sandbox",
	Long:  `Check paths against the workspace boundary and list the protected-path rules.`,
}

var sandboxCheckCmd = NewCommand("check", "Check whether paths may be touched inside a workspace",
	`Report, for each PATH, whether file operations on it would be allowed with the
workspace given by --root (the current directory by default).`).
	WithExample(`  mdview sandbox check --root ~/notes ~/notes/a.md ~/.ssh/id_rsa /etc/hosts`).
	WithArgsValidation(1).
	WithCore(func(ctx context.Context, cmd *cobra.Command, args []string, api ipc.API) error {
		if err := openWorkspace(ctx, api); err != nil {
			return err
		}

		results := make([]CheckOutput, 0, len(args))
		denied := 0
		for _, arg := range args {
			p, err := absPath(arg)
			if err != nil {
				return err
			}
			out := CheckOutput{Path: p}
			exists, err := api.PathExists(ctx, p)
			switch {
			case err == nil:
				out.Allowed = true
				out.Exists = exists
			case errors.IsSecurityViolation(err):
				out.Reason = err.Error()
				denied++
			default:
				return err
			}
			results = append(results, out)
		}

		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			if err := output.Write(results); err != nil {
				return err
			}
		} else {
			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)
			for _, r := range results {
				if r.Allowed {
					_, _ = green.Print("  allowed ")
					fmt.Println(r.Path)
				} else {
					_, _ = red.Print("  denied  ")
					fmt.Printf("%s (%s)\n", r.Path, r.Reason)
				}
			}
		}

		if denied > 0 {
			return errors.New(errors.ExitCodeSandboxViolation, fmt.Sprintf("%d of %d path(s) denied", denied, len(args)))
		}
		return nil
	}).Build()

var sandboxRulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the protected-path rules for this platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules := sandbox.DefaultPolicy().Rules()
		out := make([]RuleOutput, 0, len(rules))
		for _, r := range rules {
			out = append(out, RuleOutput{Kind: r.Kind.String(), Value: r.Value})
		}

		output := NewOutputWriter(outputFormat)
		if output.IsStructured() {
			return output.Write(out)
		}
		fmt.Printf("Protected-path rules (policy v%d):\n", sandbox.PolicyVersion)
		for _, r := range out {
			fmt.Printf("  %-20s %s\n", r.Kind, r.Value)
		}
		return nil
	},
}

func init() {
	sandboxCheckCmd.Flags().StringVar(&transferRoot, "root", "", "Workspace folder (default: current directory)")
	AddCommands(sandboxCmd, sandboxCheckCmd, sandboxRulesCmd)
}
