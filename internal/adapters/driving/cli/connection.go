package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

var (
	connName         string
	connCategory     string
	connContentField string
	connTitleField   string
	connParams       []string
)

var connectionCmd = &cobra.Command{
	Use:     "connection",
	Aliases: []string{"conn"},
	Short:   "Manage source connections",
	Long:    `Add, list, inspect and reconfigure the connections a tenant syncs from.`,
}

var connectionKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List supported source kinds and their parameters",
	Args:  cobra.NoArgs,
	RunE:  runConnectionKinds,
}

var connectionAddCmd = &cobra.Command{
	Use:   "add [tenant] [kind] [id]",
	Short: "Add a connection",
	Long: `Registers a connection and creates its category.

Parameters are passed as repeated --param key=value flags, e.g.

  sercha-sync connection add acme sql handbook \
    --param dsn=/srv/handbook.db --param table=pages`,
	Args: cobra.ExactArgs(3),
	RunE: runConnectionAdd,
}

var connectionListCmd = &cobra.Command{
	Use:   "list [tenant]",
	Short: "List connections, optionally for one tenant",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConnectionList,
}

var connectionShowCmd = &cobra.Command{
	Use:   "show [tenant] [kind] [id]",
	Short: "Show a connection",
	Args:  cobra.ExactArgs(3),
	RunE:  runConnectionShow,
}

var connectionSetCmd = &cobra.Command{
	Use:   "set [tenant] [kind] [id]",
	Short: "Update connection parameters",
	Args:  cobra.ExactArgs(3),
	RunE:  runConnectionSet,
}

var connectionResetCmd = &cobra.Command{
	Use:   "reset [tenant] [kind] [id]",
	Short: "Clear the sync cursor so the next run starts from scratch",
	Args:  cobra.ExactArgs(3),
	RunE:  runConnectionReset,
}

func init() {
	connectionAddCmd.Flags().StringVar(&connName, "name", "", "display name")
	connectionAddCmd.Flags().StringVar(&connCategory, "category", "", "document category (default: connection id)")
	connectionAddCmd.Flags().StringVar(&connContentField, "content-field", "", "record field holding the body text")
	connectionAddCmd.Flags().StringVar(&connTitleField, "title-field", "", "record field holding the title")
	connectionAddCmd.Flags().StringArrayVarP(&connParams, "param", "p", nil, "connector parameter as key=value")
	connectionSetCmd.Flags().StringArrayVarP(&connParams, "param", "p", nil, "connector parameter as key=value")

	connectionCmd.AddCommand(connectionKindsCmd)
	connectionCmd.AddCommand(connectionAddCmd)
	connectionCmd.AddCommand(connectionListCmd)
	connectionCmd.AddCommand(connectionShowCmd)
	connectionCmd.AddCommand(connectionSetCmd)
	connectionCmd.AddCommand(connectionResetCmd)
	rootCmd.AddCommand(connectionCmd)
}

func runConnectionKinds(cmd *cobra.Command, _ []string) error {
	if connectionService == nil {
		return errNotConfigured("connection")
	}

	for _, k := range connectionService.Kinds() {
		cmd.Printf("%s - %s\n", k.Kind, k.Description)
		for _, key := range k.ConfigKeys {
			flags := ""
			if key.Required {
				flags += " (required)"
			}
			if key.Secret {
				flags += " (secret)"
			}
			if key.Default != "" {
				flags += fmt.Sprintf(" [default %s]", key.Default)
			}
			cmd.Printf("    %-18s %s%s\n", key.Key, key.Description, flags)
		}
	}
	return nil
}

func runConnectionAdd(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errNotConfigured("connection")
	}

	kind, err := parseKind(args[1])
	if err != nil {
		return err
	}
	params, err := parseParams(connParams)
	if err != nil {
		return err
	}

	cfg := &domain.ConnectionConfig{
		ID:           args[2],
		TenantID:     args[0],
		Kind:         kind,
		Name:         connName,
		Category:     connCategory,
		ContentField: connContentField,
		TitleField:   connTitleField,
		Params:       params,
	}
	if err := connectionService.Add(cmd.Context(), cfg); err != nil {
		return fmt.Errorf("failed to add connection: %w", err)
	}

	cmd.Printf("Added connection %s (category %s).\n", cfg.Key(), cfg.DocumentCategory())
	return nil
}

func runConnectionList(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errNotConfigured("connection")
	}

	tenant := ""
	if len(args) > 0 {
		tenant = args[0]
	}
	conns, err := connectionService.List(cmd.Context(), tenant)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}
	if len(conns) == 0 {
		cmd.Println("No connections configured.")
		return nil
	}

	for i := range conns {
		c := &conns[i]
		lastSync := "never"
		if !c.LastSync.IsZero() {
			lastSync = c.LastSync.Local().Format("2006-01-02 15:04")
		}
		cmd.Printf("  %-10s %-10s %-20s last sync: %s\n", c.TenantID, c.Kind, c.ID, lastSync)
	}
	return nil
}

func runConnectionShow(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errNotConfigured("connection")
	}

	kind, err := parseKind(args[1])
	if err != nil {
		return err
	}
	cfg, err := connectionService.Get(cmd.Context(), args[0], kind, args[2])
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	redacted := cfg.Redacted()

	cmd.Printf("ID:        %s\n", redacted.ID)
	cmd.Printf("Tenant:    %s\n", redacted.TenantID)
	cmd.Printf("Kind:      %s\n", redacted.Kind)
	if redacted.Name != "" {
		cmd.Printf("Name:      %s\n", redacted.Name)
	}
	cmd.Printf("Category:  %s\n", redacted.DocumentCategory())
	cmd.Printf("Index:     %s\n", redacted.Namespace())
	if redacted.Cursor != "" {
		cmd.Printf("Cursor:    %s\n", redacted.Cursor)
	}
	if !redacted.LastSync.IsZero() {
		cmd.Printf("Last sync: %s\n", redacted.LastSync.Local().Format("2006-01-02 15:04:05"))
	}

	keys := make([]string, 0, len(redacted.Params))
	for k := range redacted.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		cmd.Println("Params:")
		for _, k := range keys {
			cmd.Printf("  %s = %s\n", k, redacted.Params[k])
		}
	}
	return nil
}

func runConnectionSet(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errNotConfigured("connection")
	}

	kind, err := parseKind(args[1])
	if err != nil {
		return err
	}
	params, err := parseParams(connParams)
	if err != nil {
		return err
	}
	if len(params) == 0 {
		return fmt.Errorf("%w: at least one --param is required", domain.ErrInvalidInput)
	}

	if err := connectionService.SetParams(cmd.Context(), args[0], kind, args[2], params); err != nil {
		return fmt.Errorf("failed to update connection: %w", err)
	}
	cmd.Printf("Updated %d parameter(s).\n", len(params))
	return nil
}

func runConnectionReset(cmd *cobra.Command, args []string) error {
	if connectionService == nil {
		return errNotConfigured("connection")
	}

	kind, err := parseKind(args[1])
	if err != nil {
		return err
	}
	if err := connectionService.ResetCursor(cmd.Context(), args[0], kind, args[2]); err != nil {
		return fmt.Errorf("failed to reset cursor: %w", err)
	}
	cmd.Println("Cursor cleared. The next sync starts from the beginning.")
	return nil
}

func parseKind(s string) (domain.SourceKind, error) {
	kind := domain.SourceKind(strings.ToLower(s))
	if _, ok := domain.LookupKind(kind); !ok {
		return "", fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, s)
	}
	return kind, nil
}

func parseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("%w: parameter %q is not key=value", domain.ErrInvalidInput, p)
		}
		params[strings.TrimSpace(key)] = value
	}
	return params, nil
}
