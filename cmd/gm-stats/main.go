package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/quakelab/bridgeval/internal/engine"
)

// gm-stats summarizes a ground motion record before it is fed into an
// evaluation run: peak acceleration, basic statistics, Arias intensity
// and the 5-95% significant duration.
func main() {
	var (
		file      = flag.String("file", "", "Path to ground motion record (one acceleration in g per line, required)")
		dt        = flag.Float64("dt", 0.02, "Record time step in seconds")
		csvOutput = flag.String("csv", "", "Optional CSV output file path (time, acceleration)")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -file <motion.txt> [-dt 0.02]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *dt <= 0 {
		fmt.Fprintf(os.Stderr, "Error: -dt must be positive\n")
		os.Exit(1)
	}

	motion, err := engine.LoadGroundMotion(*file, *dt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading ground motion: %v\n", err)
		os.Exit(1)
	}
	if len(motion.Accel) == 0 {
		fmt.Fprintf(os.Stderr, "Error: record contains no samples\n")
		os.Exit(1)
	}

	pga := 0.0
	for _, a := range motion.Accel {
		if abs := math.Abs(a); abs > pga {
			pga = abs
		}
	}

	mean := stat.Mean(motion.Accel, nil)
	stddev := stat.StdDev(motion.Accel, nil)
	arias, d595 := ariasIntensity(motion)

	fmt.Printf("Ground motion record: %s\n", *file)
	fmt.Printf("  Samples:              %d\n", len(motion.Accel))
	fmt.Printf("  Time step:            %g s\n", motion.Dt)
	fmt.Printf("  Duration:             %.3f s\n", motion.Duration())
	fmt.Printf("  PGA:                  %.4f m/s^2 (%.4f g)\n", pga, pga/engine.Gravity)
	fmt.Printf("  Mean acceleration:    %.6f m/s^2\n", mean)
	fmt.Printf("  Std deviation:        %.6f m/s^2\n", stddev)
	fmt.Printf("  Arias intensity:      %.4f m/s\n", arias)
	fmt.Printf("  Significant duration: %.3f s (5-95%% Arias)\n", d595)

	if *csvOutput != "" {
		if err := writeCSV(*csvOutput, motion); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *csvOutput)
	}
}

// ariasIntensity returns the Arias intensity of the record and the 5-95%
// significant duration derived from its cumulative build-up.
func ariasIntensity(motion *engine.GroundMotion) (float64, float64) {
	cumulative := make([]float64, len(motion.Accel))
	sum := 0.0
	for i, a := range motion.Accel {
		sum += a * a * motion.Dt
		cumulative[i] = sum
	}
	total := sum * math.Pi / (2 * engine.Gravity)
	if sum <= 0 {
		return 0, 0
	}

	t5 := -1.0
	t95 := -1.0
	for i, c := range cumulative {
		frac := c / sum
		if t5 < 0 && frac >= 0.05 {
			t5 = float64(i) * motion.Dt
		}
		if t95 < 0 && frac >= 0.95 {
			t95 = float64(i) * motion.Dt
			break
		}
	}
	if t5 < 0 || t95 < 0 {
		return total, 0
	}
	return total, t95 - t5
}

func writeCSV(path string, motion *engine.GroundMotion) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"time_s", "accel_ms2"}); err != nil {
		return err
	}
	for i, a := range motion.Accel {
		record := []string{
			strconv.FormatFloat(float64(i)*motion.Dt, 'f', -1, 64),
			strconv.FormatFloat(a, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
