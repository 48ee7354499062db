package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"campusafe/internal/cache"
	"campusafe/internal/config"
	"campusafe/internal/errors"
	"campusafe/internal/events"
	"campusafe/internal/logging"
	"campusafe/internal/service"
	"campusafe/internal/store"
)

var (
	seedFile  string
	seedReset bool
)

var rootCmd = &cobra.Command{
	Use:           "seed",
	Short:         "Load fixture data into the configured store",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var seedItemsCmd = &cobra.Command{
	Use:   "items",
	Short: "Insert found items from a JSON file or the built-in demo set",
	Long: `Reads a JSON array of item reports and inserts each one as a new Posted item.
Without --file a small demo set is used. --reset deletes every existing item first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logging.Setup(cfg.LogLevel, true)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.StoreDriver == config.DriverMemory {
			return fmt.Errorf("STORE_DRIVER=memory cannot be seeded; its data is lost when the process exits")
		}

		inputs := demoItems()
		if seedFile != "" {
			var err error
			if inputs, err = loadItems(seedFile); err != nil {
				return err
			}
		}

		ctx := cmd.Context()
		stores, err := store.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer stores.Close(context.Background())

		// the server's read cache must not keep serving items that --reset deletes
		cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer cacheClient.Close()

		items := service.NewItemService(stores.Items, stores.Users, service.NewImageService(nil), events.Noop{}, cacheClient)

		if seedReset {
			deleted, err := items.ResetItems(ctx)
			if err != nil {
				return fmt.Errorf("reset items: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d existing items\n", deleted)
		}

		created, skipped, err := seedItems(ctx, items, inputs)
		fmt.Fprintf(cmd.OutOrStdout(), "created %d items, skipped %d\n", created, skipped)
		return err
	},
}

func init() {
	seedItemsCmd.Flags().StringVar(&seedFile, "file", "", "JSON array of item reports (default: built-in demo set)")
	seedItemsCmd.Flags().BoolVar(&seedReset, "reset", false, "delete every existing item before seeding")
	rootCmd.AddCommand(seedItemsCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadItems(path string) ([]service.CreateItemInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var inputs []service.CreateItemInput
	if err := json.Unmarshal(data, &inputs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return inputs, nil
}

// seedItems creates each input. Invalid entries are skipped; any other error stops the run.
func seedItems(ctx context.Context, items service.ItemService, inputs []service.CreateItemInput) (created, skipped int, err error) {
	for i, in := range inputs {
		item, err := items.CreateItem(ctx, in)
		if err != nil {
			if stderrors.Is(err, errors.ErrValidation) {
				log.Warn().Err(err).Int("index", i).Str("name", in.Name).Msg("skipping item")
				skipped++
				continue
			}
			return created, skipped, fmt.Errorf("item %d: %w", i, err)
		}
		log.Debug().Str("item_id", item.ID).Str("name", item.Name).Msg("item created")
		created++
	}
	return created, skipped, nil
}

func demoItems() []service.CreateItemInput {
	return []service.CreateItemInput{
		{
			Name:            "Black umbrella",
			Location:        "Library, second floor",
			Date:            "2024-03-04",
			Category:        "Accessories",
			Description:     "Folding umbrella left near the reading tables.",
			SecretQuestion1: "What is written on the handle?",
			SecretAnswer1:   "initials RK",
			PostedBy:        "finder@sjec.ac.in",
		},
		{
			Name:            "Casio calculator",
			Location:        "Block B, room 204",
			Date:            "2024-03-05",
			Category:        "Electronics",
			Description:     "fx-991ES scientific calculator with a sticker on the back.",
			SecretQuestion1: "What sticker is on the back?",
			SecretAnswer1:   "a cat",
			SecretQuestion2: "Any name written inside the cover?",
			SecretAnswer2:   "no",
			PostedBy:        "finder@sjec.ac.in",
		},
		{
			Name:            "Student ID card",
			Location:        "Canteen",
			Date:            "2024-03-06",
			Category:        "Documents",
			Description:     "ID card in a blue lanyard.",
			SecretQuestion1: "Which branch is printed on the card?",
			SecretAnswer1:   "CSE",
			PostedBy:        "security@sjec.ac.in",
		},
		{
			Name:        "Water bottle",
			Location:    "Basketball court",
			Date:        "2024-03-07",
			Category:    "Other",
			Description: "Steel bottle, dented near the base.",
		},
	}
}
