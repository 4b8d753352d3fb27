package harvest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Converter turns a raw snapshot file into the queryable JSON artifact.
// Conversion may run out of process; callers treat failure as terminal for
// that slot.
type Converter interface {
	Convert(ctx context.Context, snapshotPath string) ([]byte, error)
}

// Grib2JSONConverter shells out to the grib2json utility, the same tool the
// original ingest scripts used. It extracts the 10 m wind records and emits
// the grid as JSON on a scratch file.
type Grib2JSONConverter struct {
	bin string
}

// NewGrib2JSONConverter returns a converter invoking the given binary
// ("grib2json" when empty).
func NewGrib2JSONConverter(bin string) *Grib2JSONConverter {
	if bin == "" {
		bin = "grib2json"
	}
	return &Grib2JSONConverter{bin: bin}
}

// Convert runs grib2json over the snapshot file and returns the JSON bytes.
func (c *Grib2JSONConverter) Convert(ctx context.Context, snapshotPath string) ([]byte, error) {
	out, err := os.CreateTemp("", "windharvest-*.json")
	if err != nil {
		return nil, err
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, c.bin,
		"--names", "--data", "--compact",
		"--fp", "wind",
		"--fs", "103",
		"--fv", "10",
		"--output", outPath,
		snapshotPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("grib2json failed: %w: %s", err, stderr.String())
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("reading grib2json output: %w", err)
	}
	return data, nil
}
