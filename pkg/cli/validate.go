package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/soapmap/pkg/adapter"
)

// validateOutput is the JSON form of a validation run.
type validateOutput struct {
	Valid       bool                 `json:"valid"`
	Config      string               `json:"config,omitempty"`
	Connections []string             `json:"connections,omitempty"`
	Collections []string             `json:"collections,omitempty"`
	Actions     int                  `json:"actions"`
	Unresolved  []adapter.ActionInfo `json:"unresolved,omitempty"`
	Error       string               `json:"error,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file and its WSDL bindings",
	Long: `Validate a soapmap configuration file without calling any operation.

This command checks:
  - YAML/JSON syntax and the configuration schema
  - That every WSDL loads and every collection names a known connection
  - That every response mapping key is a declared attribute
  - That every action is bound to an operation its service offers`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()

		s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			if jsonOutput {
				_ = printResult(w, validateOutput{Error: err.Error()}, nil)
			}
			return err
		}
		defer func() { _ = s.Close() }()

		reg := s.registry
		out := validateOutput{
			Config:      s.file.Path,
			Connections: reg.Connections(),
			Collections: reg.Collections(),
			Actions:     len(reg.Actions()),
			Unresolved:  reg.Unresolved(),
		}
		out.Valid = len(out.Unresolved) == 0

		err = printResult(w, out, func() error {
			if out.Valid {
				fmt.Fprintf(w, "✓ %s is valid (%d connections, %d collections, %d actions)\n",
					out.Config, len(out.Connections), len(out.Collections), out.Actions)
				return nil
			}
			fmt.Fprintf(w, "✗ %s has actions bound to unknown operations:\n", out.Config)
			for _, a := range out.Unresolved {
				fmt.Fprintf(w, "  %s.%s: operation %q is not offered by connection %q\n",
					a.Collection, a.Action, a.Operation, a.Connection)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if !out.Valid {
			return fmt.Errorf("%d action(s) bound to unknown operations", len(out.Unresolved))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
