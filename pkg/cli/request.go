package cli

import (
	"sort"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/getmockd/soapmap/pkg/adapter"
	"github.com/getmockd/soapmap/pkg/config"
	"github.com/getmockd/soapmap/pkg/metrics"
)

var (
	requestConnection  string
	requestData        string
	requestSet         []string
	requestContext     []string
	requestInteractive bool
	requestMetrics     bool
)

var requestCmd = &cobra.Command{
	Use:   "request <collection> <action>",
	Short: "Run a collection action against its SOAP service",
	Long: `Run a collection action: build the SOAP request from the arguments, call the
bound operation and print the mapped records.

Arguments come from --data (a JSON object) and --set key=value pairs. The
request context, which fills {{placeholders}} in connection credentials, comes
from --ctx key=value pairs.`,
	Example: `  # Look up one station
  soapmap request station getStationByStationIdScope --set stationId=1:87063

  # Credentials from the request context, output as JSON
  soapmap request station getStationsForOrganizationScope \
      --data '{"organizationId": "1:ORG08313"}' \
      --ctx username=api-user --ctx password=secret --json

  # Prompt for missing arguments and credentials
  soapmap request station getStationByStationIdScope --interactive`,
	Args: cobra.ExactArgs(2),
	RunE: runRequest,
}

func init() {
	requestCmd.Flags().StringVar(&requestConnection, "connection", "", "Connection to use (default: the collection's connection)")
	requestCmd.Flags().StringVarP(&requestData, "data", "d", "", "Request arguments as a JSON object")
	requestCmd.Flags().StringArrayVarP(&requestSet, "set", "s", nil, "Request argument as key=value (repeatable)")
	requestCmd.Flags().StringArrayVar(&requestContext, "ctx", nil, "Request context value as key=value (repeatable)")
	requestCmd.Flags().BoolVarP(&requestInteractive, "interactive", "i", false, "Prompt for missing arguments and credentials")
	requestCmd.Flags().BoolVar(&requestMetrics, "metrics", false, "Print request metrics to stderr when done")
	rootCmd.AddCommand(requestCmd)
}

func runRequest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	collectionID, actionName := args[0], args[1]

	if requestMetrics {
		reg := metrics.Init()
		defer func() { _, _ = reg.WriteTo(cmd.ErrOrStderr()) }()
	}

	s, err := openSession(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	connectionID := requestConnection
	coll, ok := s.file.Collections[collectionID]
	if ok && connectionID == "" {
		connectionID = coll.Connection
	}

	callArgs, err := parseArgs(requestData, requestSet)
	if err != nil {
		return err
	}
	reqCtx, err := parseKeyValues(requestContext)
	if err != nil {
		return err
	}

	if requestInteractive && ok {
		if err := prompt(s.file, connectionID, coll, actionName, callArgs, reqCtx); err != nil {
			return err
		}
	}

	a := adapter.New(s.registry, adapter.WithLogger(s.logger))
	records, err := a.Request(ctx, connectionID, collectionID, actionName, callArgs, reqCtx)
	if err != nil {
		return err
	}
	return printRecords(cmd.OutOrStdout(), records)
}

// prompt asks for the request arguments and credential placeholders that
// were not given on the command line.
func prompt(f *config.File, connectionID string, coll *config.CollectionConfig, actionName string, callArgs, reqCtx map[string]any) error {
	action, ok := coll.SOAP[actionName]
	if !ok {
		return nil
	}

	argNames := make([]string, 0, len(action.RequestTable()))
	for k := range action.RequestTable() {
		argNames = append(argNames, k)
	}
	sort.Strings(argNames)
	argNames = append(argNames, placeholders(action.BodyPayloadTemplate)...)
	argNames = missing(dedupe(argNames), mergeKeys(callArgs, action.DefaultParameters))

	var ctxNames []string
	if conn, ok := f.Connections[connectionID]; ok && conn.Security != nil {
		sec := conn.Security
		ctxNames = missing(placeholders(sec.Username, sec.Password, sec.PasswordType), reqCtx)
	}

	if len(argNames) == 0 && len(ctxNames) == 0 {
		return nil
	}

	values := make(map[string]*string)
	var fields []huh.Field
	for _, name := range argNames {
		v := new(string)
		values["arg:"+name] = v
		fields = append(fields, huh.NewInput().Title(name).Value(v))
	}
	for _, name := range ctxNames {
		v := new(string)
		values["ctx:"+name] = v
		in := huh.NewInput().Title(name).Description("connection credential").Value(v)
		if strings.Contains(strings.ToLower(name), "password") {
			in = in.EchoMode(huh.EchoModePassword)
		}
		fields = append(fields, in)
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return err
	}

	for key, v := range values {
		kind, name, _ := strings.Cut(key, ":")
		if kind == "arg" {
			callArgs[name] = *v
		} else {
			reqCtx[name] = *v
		}
	}
	return nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

func mergeKeys(maps ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
