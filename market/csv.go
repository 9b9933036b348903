package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadBars reads OHLCV bars from a CSV file. The header names the columns;
// time/timestamp, open, high, low, close and volume are required, while
// quote_volume and trades are optional. Timestamps may be unix seconds,
// unix milliseconds or RFC3339.
func LoadBars(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrData, err)
	}
	defer f.Close()
	return ReadBars(f)
}

// ReadBars parses bars from CSV content.
func ReadBars(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrData, err)
	}
	cols, err := indexColumns(header, []string{"open", "high", "low", "close", "volume"})
	if err != nil {
		return nil, err
	}

	var bars []Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrData, line, err)
		}
		b, err := parseBar(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// LoadPoolBars reads pool state snapshots from a CSV file with columns
// time/timestamp, tick, liquidity and optionally volume_token0,
// volume_token1, fee_growth_global0, fee_growth_global1.
func LoadPoolBars(path string) ([]PoolBar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrData, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrData, err)
	}
	cols, err := indexColumns(header, []string{"tick", "liquidity"})
	if err != nil {
		return nil, err
	}

	var pool []PoolBar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrData, line, err)
		}
		ts, err := parseTime(field(rec, cols, "time"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrData, line, err)
		}
		tick, err := strconv.Atoi(field(rec, cols, "tick"))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: tick: %v", ErrData, line, err)
		}
		p := PoolBar{Time: ts, Tick: tick}
		if p.Liquidity, err = parseFloat(rec, cols, "liquidity"); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrData, line, err)
		}
		p.VolumeToken0, _ = parseFloat(rec, cols, "volume_token0")
		p.VolumeToken1, _ = parseFloat(rec, cols, "volume_token1")
		p.FeeGrowthGlobal0, _ = parseFloat(rec, cols, "fee_growth_global0")
		p.FeeGrowthGlobal1, _ = parseFloat(rec, cols, "fee_growth_global1")
		pool = append(pool, p)
	}
	return pool, nil
}

func indexColumns(header, required []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "timestamp" || key == "date" {
			key = "time"
		}
		cols[key] = i
	}
	if _, ok := cols["time"]; !ok {
		return nil, fmt.Errorf("%w: missing time column", ErrData)
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: missing %s column", ErrData, name)
		}
	}
	return cols, nil
}

func field(rec []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseFloat(rec []string, cols map[string]int, name string) (float64, error) {
	s := field(rec, cols, name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %v", name, err)
	}
	return v, nil
}

func parseBar(rec []string, cols map[string]int) (Bar, error) {
	ts, err := parseTime(field(rec, cols, "time"))
	if err != nil {
		return Bar{}, fmt.Errorf("%w: %v", ErrData, err)
	}
	b := Bar{Time: ts}
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"open", &b.Open}, {"high", &b.High}, {"low", &b.Low},
		{"close", &b.Close}, {"volume", &b.Volume}, {"quote_volume", &b.QuoteVolume},
	} {
		if *p.dst, err = parseFloat(rec, cols, p.name); err != nil {
			return Bar{}, fmt.Errorf("%w: %v", ErrData, err)
		}
	}
	if s := field(rec, cols, "trades"); s != "" {
		if b.Trades, err = strconv.Atoi(s); err != nil {
			return Bar{}, fmt.Errorf("%w: trades: %v", ErrData, err)
		}
	}
	return b, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Millisecond stamps are 13 digits well past year 2100.
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %v", s, err)
	}
	return t.UTC(), nil
}
