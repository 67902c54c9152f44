package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/haukened/homedns/internal/dns/common/log"
	"github.com/haukened/homedns/internal/dns/config"
	"github.com/haukened/homedns/internal/dns/domain"
	"github.com/haukened/homedns/internal/dns/repos/records/seed"
	"github.com/haukened/homedns/internal/dns/services/resolver"
)

func newRecordsCmd(cfg *config.AppConfig) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Manage the records in the store",
	}
	recordsCmd.AddCommand(
		newRecordsListCmd(cfg),
		newRecordsAddCmd(cfg),
		newRecordsDeleteCmd(cfg),
		newRecordsImportCmd(cfg),
	)
	return recordsCmd
}

// withStore opens the configured store for the duration of fn.
func withStore(cfg *config.AppConfig, fn func(store resolver.RecordStore) error) (err error) {
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()
	return fn(store)
}

func newRecordsListCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(store resolver.RecordStore) error {
				recs, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tHOSTNAME\tVALUE\tNAME")
				for _, r := range recs {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Type, r.Hostname, r.Value, r.FQDN(cfg.Zones[0]))
				}
				return w.Flush()
			})
		},
	}
}

func newRecordsAddCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:     "add <type> <hostname> <value>",
		Short:   "Add a record (A, AAAA or CNAME)",
		Example: "  homednsd records add A printer 192.168.1.50",
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rrtype := domain.RRTypeFromString(args[0])
			if !rrtype.IsStorable() {
				return fmt.Errorf("unsupported record type %q", args[0])
			}
			return withStore(cfg, func(store resolver.RecordStore) error {
				rec, err := store.Insert(cmd.Context(), rrtype, args[1], args[2])
				if err != nil {
					return err
				}
				log.Info(map[string]any{"record": rec.String()}, "Record added")
				fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", rec)
				return nil
			})
		},
	}
}

func newRecordsDeleteCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a record by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid record id %q: %w", args[0], err)
			}
			return withStore(cfg, func(store resolver.RecordStore) error {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
				log.Info(map[string]any{"id": id}, "Record deleted")
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
				return nil
			})
		},
	}
}

func newRecordsImportCmd(cfg *config.AppConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import records from a YAML, JSON or TOML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cfg, func(store resolver.RecordStore) error {
				res, err := seed.ImportFile(cmd.Context(), store, args[0], log.GetLogger())
				fmt.Fprintf(cmd.OutOrStdout(), "added %d, already present %d, invalid %d\n", res.Added, res.Conflicts, res.Invalid)
				return err
			})
		},
	}
}
