package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/windlab/windharvest/internal/harvest"
	"github.com/windlab/windharvest/internal/wind"
)

type AppConfig struct {
	// IntervalHours is the slot width; it must divide 24 evenly and matches
	// the source's model-run cadence.
	IntervalHours int

	// GapStopDays bounds how far back a harvest chain keeps retrying before
	// it gives up on the lookback window.
	GapStopDays int

	// HarvestSchedule controls how often a new harvest chain is triggered.
	HarvestSchedule time.Duration

	// Snapshot source.
	GFSBaseURL string
	Variables  []string
	Level      string
	Bounds     harvest.BoundingBox

	// Storage.
	DataDir      string
	WorkDir      string
	StoreBackend string // fs, badger or memory

	// Conversion.
	Converter    string // grib2json or netcdf
	Grib2JSONBin string

	HTTPTimeout time.Duration
	Port        string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.IntervalHours = getenvInt("HARVEST_INTERVAL_HOURS", wind.DefaultIntervalHours)
	if !wind.ValidInterval(cfg.IntervalHours) {
		return nil, fmt.Errorf("HARVEST_INTERVAL_HOURS must divide 24, got %d", cfg.IntervalHours)
	}

	cfg.GapStopDays = getenvInt("GAP_STOP_DAYS", 7)
	if cfg.GapStopDays <= 0 {
		return nil, fmt.Errorf("GAP_STOP_DAYS must be positive, got %d", cfg.GapStopDays)
	}

	scheduleStr := getenvDefault("HARVEST_SCHEDULE", "15m")
	schedule, err := time.ParseDuration(scheduleStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HARVEST_SCHEDULE: %w", err)
	}
	// The scheduler runs on whole minutes, so a sub-minute period would be
	// silently rounded away.
	if schedule < time.Minute {
		return nil, fmt.Errorf("HARVEST_SCHEDULE must be at least 1m, got %s", schedule)
	}
	cfg.HarvestSchedule = schedule

	cfg.GFSBaseURL = getenvDefault("GFS_BASE_URL",
		"https://nomads.ncep.noaa.gov/cgi-bin/filter_gfs_1p00.pl")
	cfg.Variables = splitList(getenvDefault("WIND_VARIABLES", "UGRD,VGRD"))
	cfg.Level = getenvDefault("WIND_LEVEL", "10_m_above_ground")

	bounds, err := parseBounds(getenvDefault("WIND_BBOX", "0,360,90,-90"))
	if err != nil {
		return nil, err
	}
	cfg.Bounds = bounds

	cfg.DataDir = getenvDefault("DATA_DIR", "json-data")
	cfg.WorkDir = getenvDefault("WORK_DIR", "grib-data")
	cfg.StoreBackend = getenvDefault("STORE_BACKEND", "fs")

	cfg.Converter = getenvDefault("CONVERTER", "grib2json")
	cfg.Grib2JSONBin = getenvDefault("GRIB2JSON_BIN", "grib2json")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "30s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// parseBounds parses "leftlon,rightlon,toplat,bottomlat".
func parseBounds(s string) (harvest.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return harvest.BoundingBox{}, fmt.Errorf("WIND_BBOX must be leftlon,rightlon,toplat,bottomlat, got %q", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return harvest.BoundingBox{}, fmt.Errorf("invalid WIND_BBOX value %q: %w", p, err)
		}
		vals[i] = v
	}
	return harvest.BoundingBox{
		LeftLon:   vals[0],
		RightLon:  vals[1],
		TopLat:    vals[2],
		BottomLat: vals[3],
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
