package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/mselser95/drops-miner/internal/app"
	"github.com/mselser95/drops-miner/internal/inventory"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List drop campaigns for the logged in account",
	Long: `Logs in, fetches the drops inventory and prints every campaign in the
order the miner would pick them, without watching anything.`,
	RunE: runCampaigns,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(campaignsCmd)
	campaignsCmd.Flags().BoolP("verbose", "v", false, "Show every drop of each campaign")
	campaignsCmd.Flags().String("game", "", "Only show campaigns for this game")
}

func runCampaigns(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	verbose, _ := cmd.Flags().GetBool("verbose")
	game, _ := cmd.Flags().GetString("game")

	application, err := app.New(cfg, logger, &app.Options{DisableAPI: true})
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}
	defer func() {
		_ = application.Shutdown()
	}()

	campaigns, err := application.Inventory(ctx)
	if err != nil {
		return fmt.Errorf("fetch inventory: %w", err)
	}

	prefs := application.Settings().Get()
	now := time.Now()
	inventory.SortCampaigns(campaigns, prefs.PriorityMode, prefs.Priority, now)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GAME\tCAMPAIGN\tENDS\tDROPS\tPROGRESS\tEARNABLE")

	shown := 0
	for _, c := range campaigns {
		if game != "" && c.Game.Name != game {
			continue
		}
		shown++

		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%.0f%%\t%v\n",
			c.Game.Name,
			c.Name,
			c.EndsAt.Local().Format("2006-01-02 15:04"),
			c.ClaimedDrops(), c.TotalDrops(),
			c.Progress()*100,
			c.CanEarn(nil, now) && !application.Settings().IsExcluded(c.Game.Name))

		if verbose {
			for _, d := range c.Drops {
				fmt.Fprintf(w, "\t  %s\t%s\t%d/%d min\t\t%s\n",
					d.Name, d.RewardsText(), d.CurrentMinutes(), d.RequiredMinutes, dropStatus(d, now))
			}
		}
	}

	err = w.Flush()
	if err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	if shown == 0 {
		fmt.Println("No campaigns found.")
	}

	return nil
}

func dropStatus(d *inventory.TimedDrop, now time.Time) string {
	switch {
	case d.IsClaimed():
		return "claimed"
	case d.IsComplete():
		return "ready"
	case !d.Active(now):
		return "inactive"
	default:
		return "earning"
	}
}
