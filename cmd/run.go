package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mselser95/drops-miner/internal/app"
	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/mselser95/drops-miner/internal/miner"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start mining drops",
	Long: `Starts the miner, which will:
1. Log in with the configured OAuth token
2. Load the drop campaigns inventory
3. Subscribe to account drop events over PubSub
4. Watch the best channel for the highest priority campaign
5. Claim drops as they complete

Use --console to print progress lines to stdout next to the structured log.`,
	RunE: runMiner,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("console", false, "Print human-readable progress to stdout")
	runCmd.Flags().Bool("no-api", false, "Do not start the HTTP status server")
}

func runMiner(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	console, _ := cmd.Flags().GetBool("console")
	noAPI, _ := cmd.Flags().GetBool("no-api")

	opts := &app.Options{DisableAPI: noAPI}
	if console {
		opts.Sink = newConsoleSink(os.Stdout)
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}

// consoleSink prints miner events as plain lines.
type consoleSink struct {
	out io.Writer
}

func newConsoleSink(out io.Writer) *consoleSink {
	return &consoleSink{out: out}
}

func (s *consoleSink) line(format string, args ...any) {
	fmt.Fprintf(s.out, "%s  %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

func (s *consoleSink) Print(message string) { s.line("%s", message) }

func (s *consoleSink) Status(text string) { s.line("[status] %s", text) }

func (s *consoleSink) Progress(current, total int) {
	s.line("[progress] %d/%d min", current, total)
}

func (s *consoleSink) Channel(name string) { s.line("[channel] %s", name) }

func (s *consoleSink) Drop(drop *inventory.TimedDrop) {
	if drop == nil {
		s.line("[drop] none")
		return
	}
	s.line("[drop] %s (%s) %d/%d min", drop.Name, drop.RewardsText(), drop.CurrentMinutes(), drop.RequiredMinutes)
}

func (s *consoleSink) Inventory(campaigns []*inventory.DropsCampaign) {
	s.line("[inventory] %d campaigns", len(campaigns))
}

func (s *consoleSink) Notify(title, body string) { s.line("[%s] %s", title, body) }

var _ miner.Sink = (*consoleSink)(nil)
