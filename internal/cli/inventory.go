package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"labcheck/internal/document"
	"labcheck/internal/inventory"
)

func newInventoryCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory [FILE]",
		Short: "Print the parsed inventory",
		Long: `Parse the inventory (the configured one unless FILE is given) and print it
normalized, or with --json in the layout of 'ansible-inventory --list'.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.Path(a.cfg.Layout.Inventory)
			if len(args) == 1 {
				path = args[0]
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return a.runInventory(path, asJSON)
		},
	}

	cmd.Flags().Bool("json", false, "print as JSON")
	cmd.Flags().Bool("strict", false, "reject inventory groups declared more than once")
	return cmd
}

func (a *app) runInventory(path string, asJSON bool) error {
	inv, err := inventory.Load(path, document.INIOptions{Strict: a.cfg.Inventory.Strict})
	if errors.Is(err, fs.ErrNotExist) {
		return failure("inventory not found: %s", path)
	}
	if err != nil {
		return failure("%w", err)
	}

	if !asJSON {
		_, err := a.stdout.Write(inv.Encode())
		return err
	}

	data, err := json.MarshalIndent(inv.List(), "", "  ")
	if err != nil {
		return failure("cannot serialize inventory: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}
