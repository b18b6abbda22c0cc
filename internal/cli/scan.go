package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aussiebroadwan/classrecord/pkg/classrecord"
	"github.com/aussiebroadwan/classrecord/pkg/scan"
	"github.com/spf13/cobra"
)

// resetLine re-arms the scanner, like the "scan again" button.
const resetLine = ":reset"

// scanEvent is printed as one JSON line per confirmed or rejected code.
type scanEvent struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

const (
	scanAccepted = "accepted"
	scanFailed   = "failed"
	scanRejected = "rejected"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Feed decoded codes from stdin to a scanner",
		Long: "Reads one decoded code per line from stdin. Repeated codes are confirmed\n" +
			"once; after a confirmation later codes are ignored until a line reading\n" +
			"\"" + resetLine + "\". Each outcome is printed as a JSON line.",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "enroll",
			Short: "Enroll by scanning class keys",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runScanner(cmd, func(opts ...scan.Option) *scan.Debouncer {
					return scan.NewEnrollScanner(application.Client, opts...)
				})
			},
		},
		&cobra.Command{
			Use:   "attendance <class> <term>",
			Short: "Record attendance by scanning student ids",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				ids, err := intArgs(args, "class", "term")
				if err != nil {
					return err
				}
				return runScanner(cmd, func(opts ...scan.Option) *scan.Debouncer {
					return scan.NewAttendanceScanner(application.Client, ids[0], ids[1], opts...)
				})
			},
		},
	)

	return cmd
}

func runScanner(cmd *cobra.Command, build func(...scan.Option) *scan.Debouncer) error {
	var (
		mu  sync.Mutex
		enc = json.NewEncoder(cmd.OutOrStdout())
	)
	emit := func(ev scanEvent) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(ev)
	}

	d := build(
		scan.WithContext(cmd.Context()),
		scan.WithSettleDelay(application.Config.ScanSettleDelay),
		scan.WithOnReject(func(code string, err error) {
			emit(scanEvent{Code: code, Status: scanRejected, Error: err.Error()})
		}),
		scan.WithOnResult(func(code string, err error) {
			if err != nil {
				emit(scanEvent{Code: code, Status: scanFailed, Error: describe(err).Error()})
				return
			}
			emit(scanEvent{Code: code, Status: scanAccepted})
		}),
	)
	defer d.Close()

	if err := feedLines(cmd.InOrStdin(), d); err != nil {
		return err
	}

	log(cmd).Debug("scan input closed, waiting for pending confirmation")
	d.Wait()

	// A failed refresh inside an action has already cleared the session.
	if !application.Client.LoggedIn(cmd.Context()) {
		return classrecord.ErrSessionExpired
	}
	return nil
}

// feedLines feeds each line of r to d. A reset line waits for any pending
// confirmation to finish before re-arming.
func feedLines(r io.Reader, d *scan.Debouncer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
		case resetLine:
			d.Wait()
			d.Reset()
		default:
			d.Feed(line)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read scan input: %w", err)
	}
	return nil
}
