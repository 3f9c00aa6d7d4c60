package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cwbudde/metaheuristics/internal/store"
)

var (
	recordsDataDir string
	recordsDB      string
	keepLast       int
	olderThanDays  int
	forceClean     bool
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "Manage optimization run records",
	Long: `Manage saved run records including listing and cleaning old ones.
Records hold the best vector found by a run and allow resuming it.`,
}

var listRecordsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available records",
	Long:  `Display all records with job ID, age, objective, generations, best fitness and size on disk.`,
	RunE:  runListRecords,
}

var cleanRecordsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old records",
	Long: `Delete old records based on retention policy.
You can keep only the most recent N records or delete records older than N days.`,
	RunE: runCleanRecords,
}

func init() {
	rootCmd.AddCommand(recordsCmd)

	recordsCmd.AddCommand(listRecordsCmd)
	recordsCmd.AddCommand(cleanRecordsCmd)

	recordsCmd.PersistentFlags().StringVar(&recordsDataDir, "data-dir", "./data", "Base directory for record storage")
	recordsCmd.PersistentFlags().StringVar(&recordsDB, "db", "", "SQLite database path for records (empty = filesystem store)")

	cleanRecordsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the most recent N records (0 = keep all)")
	cleanRecordsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete records older than N days (0 = no age limit)")
	cleanRecordsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openRecordsStore() (store.Store, error) {
	if recordsDB != "" {
		return store.NewSQLiteStore(recordsDB)
	}
	return store.NewFSStore(recordsDataDir)
}

func runListRecords(cmd *cobra.Command, args []string) error {
	recordStore, err := openRecordsStore()
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer recordStore.Close()

	infos, err := recordStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No records found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tAGE\tOBJECTIVE\tALGO\tGENERATIONS\tBEST FITNESS\tSIZE")
	fmt.Fprintln(w, "------\t---\t---------\t----\t-----------\t------------\t----")

	for _, info := range infos {
		sizeStr := "-"
		if recordsDB == "" {
			if size, err := getDirSize(filepath.Join(recordsDataDir, "jobs", info.JobID)); err == nil {
				sizeStr = humanize.Bytes(uint64(size))
			}
		}

		displayID := info.JobID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}

		fmt.Fprintf(w, "%s\t%s\t%s (%d)\t%s\t%d\t%.6g\t%s\n",
			displayID,
			humanize.Time(info.Timestamp),
			info.Objective,
			info.Dim,
			info.Algorithm,
			info.Generations,
			info.BestFitness,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal records: %d\n", len(infos))
	return nil
}

func runCleanRecords(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	recordStore, err := openRecordsStore()
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer recordStore.Close()

	infos, err := recordStore.ListRecords()
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No records to clean.")
		return nil
	}

	toDelete := selectRecordsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No records match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d record(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		displayID := info.JobID
		if len(displayID) > 12 {
			displayID = displayID[:12] + "..."
		}
		fmt.Printf("  - %s (generation %d, %s)\n",
			displayID,
			info.Generations,
			humanize.Time(info.Timestamp),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := recordStore.DeleteRecord(info.JobID); err != nil {
			slog.Error("Failed to delete record", "job_id", info.JobID, "error", err)
			failed++
			continue
		}
		// The SQLite backend only holds record rows; trace files live under
		// the data directory and must be removed separately.
		if recordsDB != "" {
			if err := store.DeleteTrace(recordsDataDir, info.JobID); err != nil {
				slog.Warn("Failed to delete trace file", "job_id", info.JobID, "error", err)
			}
		}
		slog.Info("Deleted record", "job_id", info.JobID)
		deleted++
	}

	fmt.Printf("\nDeleted %d record(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRecordsForDeletion applies the retention policy. Age-based and
// count-based criteria accumulate; a record matching either is deleted.
func selectRecordsForDeletion(infos []store.RecordInfo, keepLast, olderThanDays int) []store.RecordInfo {
	marked := make(map[string]bool)
	var toDelete []store.RecordInfo

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				marked[info.JobID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.RecordInfo, len(infos))
		copy(sorted, infos)
		for i := 0; i < len(sorted)-1; i++ {
			for j := 0; j < len(sorted)-i-1; j++ {
				if sorted[j].Timestamp.After(sorted[j+1].Timestamp) {
					sorted[j], sorted[j+1] = sorted[j+1], sorted[j]
				}
			}
		}

		for i := 0; i < len(sorted)-keepLast; i++ {
			if !marked[sorted[i].JobID] {
				toDelete = append(toDelete, sorted[i])
				marked[sorted[i].JobID] = true
			}
		}
	}

	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
