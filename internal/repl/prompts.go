// Package repl holds the interactive prompts. Nothing in here is required by
// the workflow itself; prompts only collect input that is fed to it.
package repl

import (
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
)

const dateLayout = "2006-01-02"

// AskDateRange collects the snapshot search window, defaulting to the
// current month. An unparseable answer falls back to the defaults rather
// than aborting the session.
func AskDateRange(defaultFrom, defaultTo time.Time) (time.Time, time.Time, error) {
	var fromStr, toStr string

	if err := survey.AskOne(&survey.Input{
		Message: "Enter start date (YYYY-MM-DD):",
		Default: defaultFrom.Format(dateLayout),
	}, &fromStr); err != nil {
		return time.Time{}, time.Time{}, err
	}

	if err := survey.AskOne(&survey.Input{
		Message: "Enter end date (YYYY-MM-DD):",
		Default: defaultTo.Format(dateLayout),
	}, &toStr); err != nil {
		return time.Time{}, time.Time{}, err
	}

	from, err1 := time.ParseInLocation(dateLayout, strings.TrimSpace(fromStr), time.UTC)
	to, err2 := time.ParseInLocation(dateLayout, strings.TrimSpace(toStr), time.UTC)
	if err1 != nil || err2 != nil {
		fmt.Println("⚠️  Invalid date format. Using default date range for the current month.")
		return defaultFrom, defaultTo, nil
	}

	// include the whole end day
	to = to.Add(24*time.Hour - time.Second)
	return from, to, nil
}

// AskKeyword collects an optional snapshot-name keyword filter.
func AskKeyword() (string, error) {
	var keyword string
	if err := survey.AskOne(&survey.Input{
		Message: "Enter a keyword to filter snapshots (optional):",
	}, &keyword); err != nil {
		return "", err
	}
	return strings.TrimSpace(keyword), nil
}

// AskChangeNumber collects the change ticket baked into snapshot names.
func AskChangeNumber() (string, error) {
	var chg string
	if err := survey.AskOne(&survey.Input{
		Message: "Enter the CHG number:",
	}, &chg, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}
	return strings.TrimSpace(chg), nil
}

// AskIDFile collects the path of a snapshot-ID list file when no IDs were
// given on the command line. An empty answer means the operator declined.
func AskIDFile() (string, error) {
	var path string
	if err := survey.AskOne(&survey.Input{
		Message: "Path to a file with snapshot resource IDs (leave empty to cancel):",
	}, &path); err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// ConfirmDeletion is the last gate before the destructive phase.
func ConfirmDeletion(count int) (bool, error) {
	var ok bool
	err := survey.AskOne(&survey.Confirm{
		Message: fmt.Sprintf("Delete %d snapshot(s)? Locks on their resource groups will be temporarily removed.", count),
		Default: false,
	}, &ok)
	return ok, err
}

// ConfirmCSVExport asks whether to write the CSV report.
func ConfirmCSVExport() (bool, error) {
	var ok bool
	err := survey.AskOne(&survey.Confirm{
		Message: "Export results to CSV?",
		Default: false,
	}, &ok)
	return ok, err
}
