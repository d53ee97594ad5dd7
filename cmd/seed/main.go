// Command seed creates the database schema and inserts the first snapshot
// of each floor, standing in for the camera-side uploader during local
// development. Every slot starts free; later snapshots come only from the
// reservation coordinator or the real detection pipeline.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/chenzhe/smart-parking/internal/config"
	"github.com/chenzhe/smart-parking/internal/database"
	"github.com/chenzhe/smart-parking/internal/model"
	"github.com/chenzhe/smart-parking/internal/repository"
)

func main() {
	rows := flag.Int("rows", 2, "parking rows per floor")
	cols := flag.Int("columns", 5, "parking columns per floor")
	force := flag.Bool("force", false, "insert a fresh snapshot even if the floor already has one")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repository.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	repo := repository.NewSnapshotRepo(db)
	total := *rows * *cols
	for _, f := range model.AllFloors() {
		if !*force {
			if _, err := repo.Latest(ctx, f); err == nil {
				log.Printf("%s: already bootstrapped, skipping", f)
				continue
			}
		}
		free := make(model.SlotList, 0, total)
		for k := 1; k <= total; k++ {
			free = append(free, k)
		}
		snap := &model.FloorSnapshot{
			Floor:         f,
			Timestamp:     time.Now().UTC(),
			TotalSlots:    total,
			FreeSlots:     total,
			FreePositions: free,
			Rows:          *rows,
			Columns:       *cols,
			Reservations:  model.ReservationMap{},
			SourceType:    "camera",
		}
		if err := repo.InsertDetection(ctx, snap); err != nil {
			log.Fatalf("%s: seed snapshot: %v", f, err)
		}
		log.Printf("%s: seeded %dx%d grid (%d slots free)", f, *rows, *cols, total)
	}
}
