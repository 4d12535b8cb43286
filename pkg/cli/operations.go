package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/soapmap/pkg/adapter"
	"github.com/getmockd/soapmap/pkg/cli/internal/output"
)

// operationOutput is one row of the operations command.
type operationOutput struct {
	Connection string `json:"connection"`
	Operation  string `json:"operation"`
	SOAPAction string `json:"soapAction"`
	Namespace  string `json:"namespace,omitempty"`
}

var operationsCmd = &cobra.Command{
	Use:   "operations [connection]",
	Short: "List the SOAP operations each connection offers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		ids := s.registry.Connections()
		if len(args) == 1 {
			if _, ok := s.registry.Client(args[0]); !ok {
				return fmt.Errorf("%w: %q", adapter.ErrUnknownConnection, args[0])
			}
			ids = args
		}

		rows := []operationOutput{}
		for _, id := range ids {
			client, _ := s.registry.Client(id)
			svc := client.Service()
			for _, name := range svc.OperationNames() {
				op := svc.Operations[name]
				rows = append(rows, operationOutput{
					Connection: id,
					Operation:  name,
					SOAPAction: op.SOAPAction,
					Namespace:  op.Namespace,
				})
			}
		}

		w := cmd.OutOrStdout()
		return printResult(w, rows, func() error {
			tw := output.Table(w)
			fmt.Fprintln(tw, "CONNECTION\tOPERATION\tSOAPACTION")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Connection, r.Operation, r.SOAPAction)
			}
			return tw.Flush()
		})
	},
}

var actionsCmd = &cobra.Command{
	Use:   "actions",
	Short: "List every collection action and the operation it is bound to",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() { _ = s.Close() }()

		actions := s.registry.Actions()
		if actions == nil {
			actions = []adapter.ActionInfo{}
		}

		w := cmd.OutOrStdout()
		return printResult(w, actions, func() error {
			tw := output.Table(w)
			fmt.Fprintln(tw, "COLLECTION\tACTION\tCONNECTION\tOPERATION\tRESOLVED")
			for _, a := range actions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", a.Collection, a.Action, a.Connection, a.Operation, a.Resolved)
			}
			return tw.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(operationsCmd)
	rootCmd.AddCommand(actionsCmd)
}
