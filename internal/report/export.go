package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"time"
)

// WriteSummaryLog writes the persistent per-account summary to
// <dir>/snapshot_deletion_log_<user>_<timestamp>.txt and returns the path.
func WriteSummaryLog(dir string, r *Report, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	stamp := now.Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("snapshot_deletion_log_%s_%s.txt", currentUser(), stamp))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	if err := writeSummary(f, r, stamp); err != nil {
		return "", err
	}
	return path, nil
}

func writeSummary(w io.Writer, r *Report, stamp string) error {
	fmt.Fprintln(w, "Snapshot Deletion Log")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "User: %s\n", currentUser())
	fmt.Fprintf(w, "Date and Time: %s\n\n", stamp)
	fmt.Fprintln(w, "Summary:")

	for _, name := range r.AccountNames() {
		acct := r.Accounts[name]
		fmt.Fprintf(w, "\nSubscription: %s\n", name)
		fmt.Fprintf(w, "  Valid Snapshots: %d\n", len(acct.Valid))
		fmt.Fprintf(w, "  Non-existent Snapshots: %d\n", len(acct.NonExistent))
		fmt.Fprintf(w, "  Deleted Snapshots: %d\n", len(acct.Deleted))
		fmt.Fprintf(w, "  Failed Deletions: %d\n", len(acct.Failed))
	}

	if _, err := fmt.Fprintf(w, "\nTotal Runtime: %.2f seconds\n", r.Elapsed.Seconds()); err != nil {
		return fmt.Errorf("failed to write summary log: %w", err)
	}
	return nil
}

// WriteCSV enumerates every (account, status, resource, error) row.
func WriteCSV(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer f.Close()

	if err := writeCSV(f, r); err != nil {
		return err
	}
	return nil
}

func writeCSV(w io.Writer, r *Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Subscription", "Status", "Snapshot", "Error"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, name := range r.AccountNames() {
		acct := r.Accounts[name]
		for _, s := range acct.Valid {
			cw.Write([]string{name, "valid", s, ""})
		}
		for _, s := range acct.NonExistent {
			cw.Write([]string{name, "non-existent", s, ""})
		}
		for _, s := range acct.Deleted {
			cw.Write([]string{name, "deleted", s, ""})
		}
		for _, f := range acct.Malformed {
			cw.Write([]string{name, "invalid", f.Resource, f.Reason})
		}
		for _, f := range acct.Errors {
			cw.Write([]string{name, "error", f.Resource, f.Reason})
		}
		for _, f := range acct.Failed {
			cw.Write([]string{name, "failed", f.Resource, f.Reason})
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
