package split

import (
	"flag"
	"fmt"
	"os"

	"github.com/sfomuseum/go-flags/flagset"
	"github.com/sfomuseum/go-flags/multi"
	"github.com/sfomuseum/go-ski-resorts"
	"github.com/sfomuseum/go-ski-resorts/download"
)

// The prefix for environment variables used to override flag values, for example SKI_RESORTS_OUTPUT.
const ENV_PREFIX string = "SKI_RESORTS"

var output string
var writer_uri string

var download_dir string
var reader_uri string
var skip_download bool
var source_url_template string
var user_agent string

var activities multi.MultiString
var index_uri string
var compression_level int

var verbose bool

func DefaultFlagSet() *flag.FlagSet {

	activities = multi.MultiString{}

	fs := flagset.NewFlagSet("split")

	fs.StringVar(&output, "output", "dist", "The directory where resort bundles and the resort index are written.")
	fs.StringVar(&writer_uri, "writer-uri", "", "A registered whosonfirst/go-writer.Writer URI. If set, it takes precedence over -output.")

	fs.StringVar(&download_dir, "download-dir", "/tmp/openskidata", "The directory where OpenSkiData GeoJSON files are downloaded to.")
	fs.StringVar(&reader_uri, "reader-uri", "", "A registered whosonfirst/go-reader.Reader URI for reading the ski_areas, runs and lifts files. If empty, -download-dir is used.")
	fs.BoolVar(&skip_download, "skip-download", false, "Use existing downloaded files.")
	fs.StringVar(&source_url_template, "source-url-template", download.DEFAULT_URL_TEMPLATE, "A URI template used to derive the download URL for each source file. It is passed a single {name} variable.")
	fs.StringVar(&user_agent, "user-agent", download.DEFAULT_USER_AGENT, "The User-Agent header sent with download requests.")

	fs.Var(&activities, "activity", "Zero or more ski area activities a resort must list (any of). If empty, \"downhill\" is used.")
	fs.StringVar(&index_uri, "index-name", resorts.INDEX_URI, "The name of the resort index file.")
	fs.IntVar(&compression_level, "compression-level", 0, "The gzip compression level (1-9) for resort bundles. If 0, the default level is used.")

	fs.BoolVar(&verbose, "verbose", false, "Enable verbose (debug) logging.")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Split OpenSkiData GeoJSON in to per-resort bundles and a resort index.\n")
		fmt.Fprintf(os.Stderr, "Usage:\n\t %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Valid options are:\n")
		fs.PrintDefaults()
	}

	return fs
}
