package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hemantobora/azsnap/internal/azure"
	"github.com/hemantobora/azsnap/internal/logging"
	"github.com/hemantobora/azsnap/internal/repl"
	"github.com/hemantobora/azsnap/internal/report"
	"github.com/hemantobora/azsnap/internal/snapshot"
	"github.com/hemantobora/azsnap/internal/workflow"
)

const dateLayout = "2006-01-02"

// setup builds the logger and an az-backed client, and verifies the session.
func setup(c *cli.Context) (*zap.Logger, azure.Client, error) {
	logger, err := logging.New(c.Bool("verbose"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	client := azure.NewCLI(logger)
	if !client.AccountExists(c.Context) {
		return nil, nil, fmt.Errorf("❌ You are not logged in to Azure. Please run 'az login' and try again")
	}

	return logger, client, nil
}

// listCommand searches snapshots across every visible subscription.
func listCommand(c *cli.Context) error {
	logger, client, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	from, to, err := resolveWindow(c)
	if err != nil {
		return err
	}

	keyword := c.String("keyword")
	if !c.IsSet("keyword") && !c.IsSet("filter") {
		keyword, err = repl.AskKeyword()
		if err != nil {
			return err
		}
	}

	filter, err := snapshot.NewFilter(keyword, c.String("filter"))
	if err != nil {
		return err
	}

	accounts, err := client.ListAccounts(c.Context)
	if err != nil {
		return fmt.Errorf("❌ No subscriptions found. Please make sure you're logged in with 'az login': %w", err)
	}

	start := time.Now()
	results := snapshot.Search(c.Context, client, logger, accounts, snapshot.SearchOptions{
		From:        from,
		To:          to,
		Filter:      filter,
		Concurrency: c.Int("concurrency"),
	})

	total := 0
	for _, res := range results {
		if res.Err != nil {
			fmt.Printf("⚠️  %s: %v\n", res.Account.Name, res.Err)
			continue
		}
		if len(res.Snapshots) == 0 {
			continue
		}
		fmt.Printf("\n📦 %s (%d snapshots)\n", res.Account.Name, len(res.Snapshots))
		for _, s := range res.Snapshots {
			fmt.Printf("   %-50s %-25s %4dd  %s\n", s.Name, s.ResourceGroup, s.AgeDays(), s.DiskState)
		}
		total += len(res.Snapshots)
	}

	fmt.Printf("\n✅ Total snapshots found: %d (%.2f seconds)\n", total, time.Since(start).Seconds())

	if out := c.String("ids-out"); out != "" && total > 0 {
		if err := writeIDList(out, results); err != nil {
			return err
		}
		fmt.Printf("📄 Snapshot resource IDs written to %s\n", out)
	}

	return nil
}

// deleteCommand runs the locked-resource bulk deletion workflow.
func deleteCommand(c *cli.Context) error {
	logger, client, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ids, err := collectIDs(c)
	if err != nil {
		return err
	}
	if len(ids) == 0 && !c.Bool("yes") {
		path, err := repl.AskIDFile()
		if err != nil {
			return err
		}
		if path != "" {
			if ids, err = readIDFile(path); err != nil {
				return err
			}
		}
	}
	if len(ids) == 0 {
		return fmt.Errorf("no snapshot resource IDs given; pass them as arguments or via --file")
	}

	if !c.Bool("yes") && !c.Bool("dry-run") {
		ok, err := repl.ConfirmDeletion(len(ids))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("🚫 Deletion cancelled.")
			return nil
		}
	}

	var strategy workflow.Strategy
	if c.Bool("serial") {
		strategy = workflow.SerialStrategy{}
	} else {
		strategy = workflow.PoolStrategy{Workers: c.Int("concurrency")}
	}

	result, err := workflow.Run(c.Context, client, logger, ids, workflow.Options{
		Strategy: strategy,
		LogDir:   c.String("log-dir"),
		DryRun:   c.Bool("dry-run"),
	})
	if err != nil {
		return err
	}

	printReport(result)

	if csvPath := c.String("csv"); csvPath != "" {
		if err := report.WriteCSV(csvPath, result.Report); err != nil {
			return err
		}
		fmt.Printf("📄 Results exported to %s\n", csvPath)
	} else if !c.Bool("yes") && !c.Bool("dry-run") {
		if ok, err := repl.ConfirmCSVExport(); err == nil && ok {
			path := fmt.Sprintf("snapshot_report_%s.csv", time.Now().Format("20060102_150405"))
			if err := report.WriteCSV(path, result.Report); err != nil {
				return err
			}
			fmt.Printf("📄 Results exported to %s\n", path)
		}
	}

	return nil
}

// createCommand snapshots the OS disks of a VM list.
func createCommand(c *cli.Context) error {
	logger, client, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	chg := c.String("chg")
	if chg == "" {
		chg, err = repl.AskChangeNumber()
		if err != nil {
			return err
		}
	}

	targets, err := snapshot.ReadVMList(c.String("input"), logger)
	if err != nil {
		return err
	}
	fmt.Printf("🔍 Total VMs to process: %d\n", len(targets))

	now := time.Now()
	opts := snapshot.CreateOptions{
		ChangeNumber: chg,
		Timestamp:    now,
		Concurrency:  c.Int("concurrency"),
	}

	outcomes := snapshot.CreateAll(c.Context, client, logger, targets, opts)

	succeeded, failed := 0, 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			fmt.Printf("❌ %s: %v\n", o.VMName, o.Err)
			continue
		}
		succeeded++
		fmt.Printf("✅ %s → %s\n", o.VMName, o.SnapshotName)
	}

	output := c.String("output")
	if output == "" {
		output = fmt.Sprintf("snapshot_resource_ids_%s.txt", now.Format("20060102150405"))
	}
	if succeeded > 0 {
		if err := snapshot.WriteSnapshotIDs(output, outcomes); err != nil {
			return err
		}
		fmt.Printf("📄 Snapshot resource IDs written to %s\n", output)
	}

	fmt.Printf("\n✅ Snapshot creation completed: %d succeeded, %d failed\n", succeeded, failed)
	return nil
}

// statusCommand shows session status and visible subscriptions.
func statusCommand(c *cli.Context) error {
	logger, client, err := setup(c)
	if err != nil {
		return err
	}
	defer logger.Sync()

	accounts, err := client.ListAccounts(c.Context)
	if err != nil {
		return err
	}

	fmt.Println("✅ Logged in to Azure")
	fmt.Printf("📋 Visible subscriptions: %d\n", len(accounts))
	for _, a := range accounts {
		fmt.Printf("   %s  %s\n", a.ID, a.Name)
	}
	return nil
}

// resolveWindow takes the window from flags, prompting for anything missing.
func resolveWindow(c *cli.Context) (time.Time, time.Time, error) {
	defaultFrom, defaultTo := snapshot.DefaultWindow(time.Now())

	if c.IsSet("from") || c.IsSet("to") {
		from, to := defaultFrom, defaultTo
		var err error
		if c.IsSet("from") {
			from, err = time.ParseInLocation(dateLayout, c.String("from"), time.UTC)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
			}
		}
		if c.IsSet("to") {
			to, err = time.ParseInLocation(dateLayout, c.String("to"), time.UTC)
			if err != nil {
				return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
			}
			to = to.Add(24*time.Hour - time.Second)
		}
		return from, to, nil
	}

	return repl.AskDateRange(defaultFrom, defaultTo)
}

// collectIDs gathers snapshot resource IDs from arguments and/or --file.
func collectIDs(c *cli.Context) ([]string, error) {
	ids := append([]string{}, c.Args().Slice()...)

	if path := c.String("file"); path != "" {
		fromFile, err := readIDFile(path)
		if err != nil {
			return nil, err
		}
		ids = append(ids, fromFile...)
	}

	return ids, nil
}

// readIDFile reads one snapshot resource ID per line, skipping blanks and
// #-comments.
func readIDFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ID file %s: %w", path, err)
	}
	defer f.Close()

	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ID file %s: %w", path, err)
	}
	return ids, nil
}

// writeIDList dumps matching snapshot IDs, one per line, for a later delete.
func writeIDList(path string, results []snapshot.SearchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	for _, res := range results {
		for _, s := range res.Snapshots {
			if _, err := fmt.Fprintln(f, s.ID); err != nil {
				return fmt.Errorf("failed to write ID list: %w", err)
			}
		}
	}
	return nil
}

// printReport renders the per-account outcome summary and the lock ledger.
func printReport(result *workflow.Result) {
	fmt.Println("\n📊 Deletion Results:")
	for _, name := range result.Report.AccountNames() {
		acct := result.Report.Accounts[name]
		fmt.Printf("\n%s\n", name)
		fmt.Printf("  Valid: %d  Non-existent: %d  Invalid: %d  Errors: %d\n",
			len(acct.Valid), len(acct.NonExistent), len(acct.Malformed), len(acct.Errors))
		fmt.Printf("  Deleted: %d  Failed: %d\n", len(acct.Deleted), len(acct.Failed))
		for _, f := range acct.Failed {
			fmt.Printf("    ❌ %s: %s\n", f.Resource, f.Reason)
		}
	}

	if n := len(result.Ledger.Removed); n > 0 {
		fmt.Printf("\n🔒 Locks removed: %d, restored: %d\n", n, len(result.Ledger.Restored))
	}
	for _, lock := range result.Ledger.Orphaned {
		fmt.Printf("⚠️  Lock '%s' on resource group '%s' (%s) was removed but NOT restored — recreate it manually\n",
			lock.Name, lock.ResourceGroup, lock.Account)
	}

	if result.LogPath != "" {
		fmt.Printf("\n📄 Deletion log file: %s\n", result.LogPath)
	}
	fmt.Printf("⏱️  Total runtime: %.2f seconds\n", result.Report.Elapsed.Seconds())
}
