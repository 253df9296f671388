package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/BurntSushi/toml"
	"github.com/agnivade/levenshtein"
	"github.com/spf13/cobra"

	"github.com/tphummel/crowpanel/internal/db"
	"github.com/tphummel/crowpanel/internal/models"
	"github.com/tphummel/crowpanel/internal/profiles"
)

// maxSuggestDistance bounds how far a name may be from the query to be
// offered as a suggestion.
const maxSuggestDistance = 4

func newSlotsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Inspect stored machine profiles",
	}
	cmd.AddCommand(
		newSlotsListCommand(),
		newSlotsShowCommand(),
		newSlotsExportCommand(),
		newSlotsResetCommand(),
	)
	return cmd
}

// withSlots opens the store, loads every slot and the selection, and closes
// the store before calling fn.
func withSlots(fn func(slots profiles.Slots, selected int) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	slots, err := store.LoadAll()
	if err != nil {
		database.Close()
		return err
	}
	selected, err := store.SelectedIndex()
	if cerr := database.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return fn(slots, selected)
}

func newSlotsListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSlots(func(slots profiles.Slots, selected int) error {
				if asJSON {
					return writeSlotsJSON(cmd.OutOrStdout(), slots, selected)
				}
				return writeSlotsTable(cmd.OutOrStdout(), slots, selected)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

type slotEntry struct {
	Slot     int  `json:"slot"`
	Selected bool `json:"selected"`
	models.MachineProfile
}

func writeSlotsJSON(w io.Writer, slots profiles.Slots, selected int) error {
	entries := make([]slotEntry, len(slots))
	for i, p := range slots {
		entries[i] = slotEntry{Slot: i, Selected: i == selected, MachineProfile: p}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeSlotsTable(w io.Writer, slots profiles.Slots, selected int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tNAME\tCONNECTION\tTARGET\tSELECTED")
	for i, p := range slots {
		mark := ""
		if i == selected {
			mark = "*"
		}
		if !p.Configured {
			fmt.Fprintf(tw, "%d\t-\t-\t-\t%s\n", i, mark)
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s:%d\t%s\n", i, p.Name, p.Connection, p.RemoteHost, p.RemotePort, mark)
	}
	return tw.Flush()
}

func newSlotsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <slot|name>",
		Short: "Show one slot by index or exact name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSlots(func(slots profiles.Slots, selected int) error {
				i, err := resolveSlot(slots, args[0])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(slotEntry{Slot: i, Selected: i == selected, MachineProfile: slots[i]})
			})
		},
	}
}

// resolveSlot maps a slot index or a configured profile's exact name to a
// slot. An unknown name yields an error listing the closest names.
func resolveSlot(slots profiles.Slots, arg string) (int, error) {
	if i, err := strconv.Atoi(arg); err == nil {
		if !models.ValidSlot(i) {
			return 0, fmt.Errorf("slot %d: %w", i, profiles.ErrSlotOutOfRange)
		}
		return i, nil
	}
	for i, p := range slots {
		if p.Configured && p.Name == arg {
			return i, nil
		}
	}
	if near := suggestNames(slots, arg); len(near) > 0 {
		return 0, fmt.Errorf("no profile named %q (did you mean %s?)", arg, strings.Join(near, ", "))
	}
	return 0, fmt.Errorf("no profile named %q", arg)
}

// suggestNames returns configured names within maxSuggestDistance of query,
// nearest first. Comparison ignores case.
func suggestNames(slots profiles.Slots, query string) []string {
	type candidate struct {
		name string
		dist int
	}
	var found []candidate
	q := strings.ToLower(query)
	for _, p := range slots {
		if !p.Configured {
			continue
		}
		d := levenshtein.ComputeDistance(q, strings.ToLower(p.Name))
		if d <= maxSuggestDistance {
			found = append(found, candidate{p.Name, d})
		}
	}
	sort.SliceStable(found, func(a, b int) bool { return found[a].dist < found[b].dist })
	names := make([]string, len(found))
	for i, c := range found {
		names[i] = strconv.Quote(c.name)
	}
	return names
}

func newSlotsExportCommand() *cobra.Command {
	var withSecrets bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all slots as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSlots(func(slots profiles.Slots, selected int) error {
				return exportSlots(cmd.OutOrStdout(), slots, selected, withSecrets)
			})
		},
	}
	cmd.Flags().BoolVar(&withSecrets, "with-secrets", false, "include WiFi passwords")
	return cmd
}

type exportSlot struct {
	Slot int `toml:"slot"`
	models.MachineProfile
}

type exportDoc struct {
	Selected int          `toml:"selected"`
	Slots    []exportSlot `toml:"slot"`
}

func exportSlots(w io.Writer, slots profiles.Slots, selected int, withSecrets bool) error {
	doc := exportDoc{Selected: selected}
	for i, p := range slots {
		if !withSecrets {
			p.Password = ""
		}
		doc.Slots = append(doc.Slots, exportSlot{Slot: i, MachineProfile: p})
	}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode slots: %w", err)
	}
	return nil
}

func newSlotsResetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase every slot and the selection",
		Long: "Erase every stored slot and the selection. The next run seeds the\n" +
			"built-in profiles again.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("reset erases all profiles; pass --yes to confirm")
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			database, _, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer database.Close()
			return resetPrefs(cmd.OutOrStdout(), database.Prefs(cfg.Prefs.Namespace))
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm erasing all profiles")
	return cmd
}

func resetPrefs(w io.Writer, prefs *db.Prefs) error {
	if err := prefs.Clear(); err != nil {
		return fmt.Errorf("clear namespace %q: %w", prefs.Namespace(), err)
	}
	_, err := fmt.Fprintf(w, "cleared namespace %q\n", prefs.Namespace())
	return err
}
