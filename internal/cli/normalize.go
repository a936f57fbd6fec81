package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/aretw0/gashu/pkg/adapters/stations"
	"github.com/aretw0/gashu/pkg/itinerary"
)

// NormalizeOptions configures the offline itinerary normalizer.
type NormalizeOptions struct {
	GlobalOptions
	// Input is a raw directions response file; "-" reads stdin.
	Input string
}

// RunNormalize prints the itineraries extracted from a saved directions
// response, resolving boarding stops against the station database.
func RunNormalize(opts NormalizeOptions, w io.Writer) error {
	cfg, logger, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	raw, err := readInput(opts.Input)
	if err != nil {
		return err
	}

	ctx := context.Background()
	app := &App{}
	defer app.Close()
	resolver, err := app.createResolver(ctx, cfg)
	if err != nil {
		return err
	}
	return normalize(ctx, itinerary.New(resolver, itinerary.WithLogger(logger)), raw, w)
}

func normalize(ctx context.Context, n *itinerary.Normalizer, raw []byte, w io.Writer) error {
	its, err := n.Normalize(ctx, raw)
	if err != nil {
		return fmt.Errorf("failed to normalize: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(its)
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// ImportOptions configures the station import.
type ImportOptions struct {
	GlobalOptions
	// CSV has a header row naming nodeid, nodenm, gpslati and gpslong.
	CSV string
}

// ImportStations loads bus stops from CSV into the SQLite station table.
func ImportStations(opts ImportOptions, w io.Writer) error {
	cfg, _, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	f, err := os.Open(opts.CSV)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.CSV, err)
	}
	defer f.Close()

	list, err := parseStations(f)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := openStationsSQLite(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Upsert(ctx, list...); err != nil {
		return err
	}
	printSystemMessage(w, "Imported %d stations.", len(list))
	return nil
}

func parseStations(r io.Reader) ([]stations.Station, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"nodeid", "nodenm", "gpslati", "gpslong"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("CSV header is missing %q", name)
		}
	}

	var list []stations.Station
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return list, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lat, errLat := strconv.ParseFloat(rec[col["gpslati"]], 64)
		lon, errLon := strconv.ParseFloat(rec[col["gpslong"]], 64)
		if err := errors.Join(errLat, errLon); err != nil {
			return nil, fmt.Errorf("line %d: invalid coordinate: %w", line, err)
		}
		list = append(list, stations.Station{
			NodeID: rec[col["nodeid"]],
			Name:   rec[col["nodenm"]],
			Lat:    lat,
			Lon:    lon,
		})
	}
}
