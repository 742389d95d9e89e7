// split-resorts downloads the global OpenSkiData GeoJSON exports (ski areas, runs and lifts) and splits them
// in to per-resort bundles ({RESORT_ID}.json.gz) and a lightweight resort_index.json catalog.
package main

/*

$> ./bin/split-resorts -output dist
$> ./bin/split-resorts -skip-download -download-dir /usr/local/data/openskidata -writer-uri fs:///usr/local/data/ski-resorts

*/

import (
	"context"
	"log"

	"github.com/sfomuseum/go-ski-resorts/app/split"
)

func main() {

	ctx := context.Background()

	err := split.Run(ctx)

	if err != nil {
		log.Fatalf("Failed to split resorts, %v", err)
	}
}
