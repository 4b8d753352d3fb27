package harvest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// NetCDFConverter decodes 10 m wind component grids from a NetCDF snapshot
// and emits the compact JSON artifact directly, without the external
// grib2json hop. Used with sources that serve NetCDF subsets instead of raw
// grib files.
type NetCDFConverter struct {
	uVar string
	vVar string
}

// NewNetCDFConverter returns a converter reading the named zonal and
// meridional wind variables ("u10"/"v10" when empty).
func NewNetCDFConverter(uVar, vVar string) *NetCDFConverter {
	if uVar == "" {
		uVar = "u10"
	}
	if vVar == "" {
		vVar = "v10"
	}
	return &NetCDFConverter{uVar: uVar, vVar: vVar}
}

// windGrid is the artifact payload: flattened row-major grids over the
// latitude and longitude axes.
type windGrid struct {
	Latitudes  []float32 `json:"lat"`
	Longitudes []float32 `json:"lon"`
	U          []float32 `json:"u"`
	V          []float32 `json:"v"`
}

// Convert reads the snapshot file and returns the JSON wind grid.
func (c *NetCDFConverter) Convert(ctx context.Context, snapshotPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nc, err := netcdf.Open(snapshotPath)
	if err != nil {
		return nil, fmt.Errorf("opening netcdf snapshot: %w", err)
	}
	defer nc.Close()

	grid := windGrid{}
	grid.Latitudes, err = axisValues(nc, "latitude")
	if err != nil {
		return nil, err
	}
	grid.Longitudes, err = axisValues(nc, "longitude")
	if err != nil {
		return nil, err
	}

	grid.U, err = fieldValues(nc, c.uVar)
	if err != nil {
		return nil, err
	}
	grid.V, err = fieldValues(nc, c.vVar)
	if err != nil {
		return nil, err
	}

	want := len(grid.Latitudes) * len(grid.Longitudes)
	if len(grid.U) != want || len(grid.V) != want {
		return nil, fmt.Errorf("wind grid shape mismatch: %d lat x %d lon, %d u, %d v",
			len(grid.Latitudes), len(grid.Longitudes), len(grid.U), len(grid.V))
	}

	return json.Marshal(grid)
}

func axisValues(nc api.Group, name string) ([]float32, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s axis: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("reading %s axis: %w", name, err)
	}
	switch vals := v.(type) {
	case []float32:
		return vals, nil
	case []float64:
		out := make([]float32, len(vals))
		for i, f := range vals {
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported %s axis type %T", name, v)
	}
}

// fieldValues flattens the first timestep of a (time, lat, lon) or a plain
// (lat, lon) variable into row-major order.
func fieldValues(nc api.Group, name string) ([]float32, error) {
	vg, err := nc.GetVarGetter(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	v, err := vg.Values()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}

	var rows [][]float32
	switch vals := v.(type) {
	case [][][]float32:
		if len(vals) == 0 {
			return nil, fmt.Errorf("%s has no timesteps", name)
		}
		rows = vals[0]
	case [][]float32:
		rows = vals
	default:
		return nil, fmt.Errorf("unsupported %s field type %T", name, v)
	}

	var flat []float32
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return flat, nil
}
