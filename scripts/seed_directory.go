// seed_directory.go loads a directory export (.xlsx) into a rider's directory
// via the Carpool API.
//
// Usage:
//
//	go run scripts/seed_directory.go -file directory.xlsx -rider <uuid> -api http://localhost:8700
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"

	"github.com/MikeSquared-Agency/Carpool/internal/importer"
)

func main() {
	path := flag.String("file", "directory.xlsx", "path to the .xlsx export")
	sheet := flag.String("sheet", "", "sheet name (defaults to the first sheet)")
	apiURL := flag.String("api", "http://localhost:8700", "Carpool API base URL")
	riderID := flag.String("rider", "", "rider whose directory is seeded")
	dryRun := flag.Bool("dry-run", false, "print entries without sending")
	flag.Parse()

	if *riderID == "" && !*dryRun {
		log.Fatal("-rider is required")
	}

	f, err := importer.OpenFile(*path)
	if err != nil {
		log.Fatalf("open %s: %v", *path, err)
	}
	defer f.Close()

	entries, rowErrs, err := importer.ReadDirectory(f, *sheet)
	if err != nil {
		log.Fatalf("read sheet: %v", err)
	}
	for _, re := range rowErrs {
		log.Printf("skip %v", re)
	}
	log.Printf("parsed %d entries from %s", len(entries), *path)

	if *dryRun {
		for _, e := range entries {
			fmt.Printf("[row %d] %s %s home=%.2f work=%.2f seats=%d\n", e.Row, e.CandidateID, e.Name, e.HomeDistanceKm, e.WorkDistanceKm, e.Seats)
		}
		return
	}

	client := &http.Client{}
	stored, skipped := 0, 0
	for _, e := range entries {
		body, _ := json.Marshal(e)
		endpoint := fmt.Sprintf("%s/api/v1/riders/%s/directory/%s", *apiURL, url.PathEscape(*riderID), url.PathEscape(e.CandidateID))
		req, err := http.NewRequest(http.MethodPut, endpoint, bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", e.CandidateID, err)
			skipped++
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Rider-ID", *riderID)

		resp, err := client.Do(req)
		if err != nil {
			log.Printf("skip %q: %v", e.CandidateID, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			stored++
		} else {
			log.Printf("skip %q: status %d", e.CandidateID, resp.StatusCode)
			skipped++
		}
	}

	log.Printf("done: %d stored, %d skipped", stored, skipped)
}
