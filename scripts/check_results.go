//go:build ignore

// Check_results validates the submissions CSV after a loadtest.go run by
// checking the header, the shape of every row, and that each request index
// was stored exactly once.
//
// Usage:
//
//	go run check_results.go -csv ../data/contact-submissions.csv -expected 5000
//
// The tool verifies:
//   - The header line is intact
//   - Every row has five fields and a well-formed timestamp (no interleaved writes)
//   - No duplicate request indices (data integrity)
//   - Total loadtest row count matches expected count (completeness)
//
// Exit codes:
//
//	0 - Verification passed
//	2 - File errors or malformed CSV
//	3 - Duplicate indices found
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

var loadtestIndex = regexp.MustCompile(`^loadtest-(\d+)`)

func main() {
	csvPath := flag.String("csv", "data/contact-submissions.csv", "Path to the submissions CSV")
	expected := flag.Int("expected", 0, "Expected number of loadtest rows (optional)")
	flag.Parse()

	f, err := os.Open(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open csv: %v\n", err)
		os.Exit(2)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read csv: %v\n", err)
		os.Exit(2)
	}

	if len(rows) == 0 {
		fmt.Fprintf(os.Stderr, "csv empty\n")
		os.Exit(2)
	}

	want := []string{"timestamp", "name", "email", "phone", "message"}
	header := rows[0]
	if len(header) != len(want) {
		fmt.Fprintf(os.Stderr, "unexpected csv header: %v\n", header)
		os.Exit(2)
	}
	for i := range want {
		if header[i] != want[i] {
			fmt.Fprintf(os.Stderr, "unexpected csv header: %v\n", header)
			os.Exit(2)
		}
	}

	idxSeen := map[int]bool{}
	loadtestRows := 0
	otherRows := 0

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) != len(want) {
			fmt.Fprintf(os.Stderr, "malformed row %d: %v\n", i, row)
			os.Exit(2)
		}
		if _, err := time.Parse("2006-01-02T15:04:05.000Z", row[0]); err != nil {
			fmt.Fprintf(os.Stderr, "invalid timestamp at row %d: %v\n", i, err)
			os.Exit(2)
		}

		m := loadtestIndex.FindStringSubmatch(row[4])
		if m == nil {
			otherRows++
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		if idxSeen[idx] {
			fmt.Printf("DUPLICATE idx=%d at csv row %d\n", idx, i)
		}
		idxSeen[idx] = true
		loadtestRows++
	}

	unique := len(idxSeen)
	fmt.Printf("Total rows: %d  Loadtest rows: %d  Unique idx: %d  Other rows: %d\n",
		len(rows)-1, loadtestRows, unique, otherRows)

	if *expected > 0 && loadtestRows != *expected {
		fmt.Printf("Warning: loadtest rows (%d) != expected (%d)\n", loadtestRows, *expected)
	}

	if loadtestRows != unique {
		fmt.Printf("ERROR: found %d duplicate indices\n", loadtestRows-unique)
		os.Exit(3)
	}

	fmt.Println("Verification passed: header intact, rows well formed, no duplicate indices.")
}
