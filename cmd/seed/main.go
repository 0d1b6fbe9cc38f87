package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ikkim/restaurant-reviews/config"
	"github.com/ikkim/restaurant-reviews/internal/app/model"
	"github.com/ikkim/restaurant-reviews/internal/app/repository"
	"github.com/ikkim/restaurant-reviews/internal/db"
	"github.com/xuri/excelize/v2"
)

// Column headers read from the first row. Day columns are optional.
var (
	requiredColumns = []string{"id", "name", "address", "lat", "lng"}
	dayColumns      = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path> [-y]")
	}

	filePath := os.Args[1]
	assumeYes := len(os.Args) > 2 && os.Args[2] == "-y"

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Cache); err != nil {
		log.Fatal("Failed to open local cache:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	restaurantRepo := repository.NewRestaurantRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	restaurants, err := readRestaurantsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total restaurants to import: %d\n", len(restaurants))

	if !assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	batchSize := 500
	if err := restaurantRepo.BulkUpsert(context.Background(), restaurants, batchSize); err != nil {
		log.Fatal("Failed to import restaurants:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total restaurants cached: %d\n", len(restaurants))
}

func readRestaurantsFromXLSX(filePath string) ([]model.Restaurant, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no data found in XLSX file")
	}

	columns := make(map[string]int, len(rows[0]))
	for i, header := range rows[0] {
		columns[strings.TrimSpace(header)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var restaurants []model.Restaurant
	seen := make(map[uint]bool)
	skipped := 0

	for _, row := range rows[1:] {
		id, err := strconv.ParseUint(cell(row, "id"), 10, 32)
		if err != nil || id == 0 || seen[uint(id)] {
			skipped++
			continue
		}

		name := cell(row, "name")
		if name == "" {
			skipped++
			continue
		}

		lat, errLat := strconv.ParseFloat(cell(row, "lat"), 64)
		lng, errLng := strconv.ParseFloat(cell(row, "lng"), 64)
		if errLat != nil || errLng != nil {
			skipped++
			continue
		}

		hours := model.OperatingHours{}
		for _, day := range dayColumns {
			if v := cell(row, day); v != "" {
				hours[day] = v
			}
		}

		seen[uint(id)] = true
		restaurants = append(restaurants, model.Restaurant{
			ID:             uint(id),
			Name:           name,
			Neighborhood:   cell(row, "neighborhood"),
			Photograph:     cell(row, "photograph"),
			Address:        cell(row, "address"),
			LatLng:         model.LatLng{Lat: lat, Lng: lng},
			CuisineType:    cell(row, "cuisine_type"),
			OperatingHours: hours,
		})
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Total rows: %d\n", len(rows)-1)
	fmt.Printf("  Valid restaurants: %d\n", len(restaurants))
	fmt.Printf("  Skipped rows: %d\n", skipped)

	return restaurants, nil
}
