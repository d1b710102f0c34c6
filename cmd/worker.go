package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"example.com/tripplanner/config"
	"example.com/tripplanner/internal/database"
	"example.com/tripplanner/internal/ordering"
	"example.com/tripplanner/internal/repositories"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start the background worker",
	Long:  `Start the background worker that periodically audits itinerary ordering across all trips`,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Set up signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	db, readOnlyDB, err := database.Connect(cfg.DB)
	if err != nil {
		return err
	}

	tripRepo := repositories.NewTripRepository(db, readOnlyDB)
	itemRepo := repositories.NewItineraryRepository(db, readOnlyDB)
	engine := ordering.NewEngine(itemRepo)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Audit.Interval),
		gocron.NewTask(func() {
			log.Info().Msg("Running itinerary order audit")
			if err := auditAllTrips(ctx, tripRepo, engine, cfg.Audit.Concurrency); err != nil {
				log.Error().Err(err).Msg("Itinerary order audit failed")
			}
		}),
	)
	if err != nil {
		return err
	}

	scheduler.Start()

	<-ctx.Done()

	log.Info().Msg("Worker shutting down gracefully")
	return scheduler.Shutdown()
}

// auditAllTrips fans the order audit out over every trip with bounded
// concurrency and logs each violation found
func auditAllTrips(ctx context.Context, tripRepo repositories.TripRepository, engine *ordering.Engine, concurrency int) error {
	tripIDs, err := tripRepo.ListIDs(ctx)
	if err != nil {
		return err
	}

	if concurrency < 1 {
		concurrency = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, tripID := range tripIDs {
		tripID := tripID
		g.Go(func() error {
			violations, err := engine.AuditTrip(ctx, tripID)
			if err != nil {
				log.Error().Err(err).Str("trip_id", tripID.String()).Msg("Failed to audit trip")
				return nil
			}

			for _, v := range violations {
				log.Warn().
					Str("trip_id", v.TripID.String()).
					Int("day_number", v.DayNumber).
					Ints("duplicates", v.Duplicates).
					Ints("gaps", v.Gaps).
					Msg("Itinerary order contract violated")
			}

			return nil
		})
	}

	return g.Wait()
}
