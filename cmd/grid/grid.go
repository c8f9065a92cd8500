// Command grid builds, stores, inspects and serves multi-level
// spherical tessellation grids.
//
// Usage:
//
//	grid build --base icosahedron --levels 2 --out earth.tess
//	grid build --config grid.json --db catalog.db --name earth
//	grid inspect earth.tess --tess 0 --level 1
//	grid report --in earth.tess --out report.html
//	grid serve --db catalog.db --listen :8080
//	grid db --db catalog.db migrate-up
//	grid version
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/geogrid/internal/api"
	"github.com/banshee-data/geogrid/internal/config"
	"github.com/banshee-data/geogrid/internal/griddb"
	"github.com/banshee-data/geogrid/internal/httputil"
	"github.com/banshee-data/geogrid/internal/report"
	"github.com/banshee-data/geogrid/internal/tess"
	"github.com/banshee-data/geogrid/internal/version"
)

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:], os.Stdout)
	case "inspect":
		err = runInspect(os.Args[2:], os.Stdout)
	case "report":
		err = runReport(os.Args[2:], os.Stdout)
	case "serve":
		err = runServe(os.Args[2:])
	case "db":
		err = runDB(os.Args[2:], os.Stdout)
	case "version":
		fmt.Println(version.String())
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "grid %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: grid <command> [flags]

commands:
  build     build a tessellation grid and write it to a file and/or catalog
  inspect   print triangle/vertex counts of a stored grid
  report    render an HTML report for a grid file
  serve     serve the HTTP query API over a grid catalog
  db        catalog maintenance (migrations)
  version   print version information

run 'grid <command> -h' for command flags`)
}

func runBuild(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	var (
		base       = fs.String("base", string(tess.Icosahedron), "Base shape: icosahedron, octahedron or tetrahedron")
		levels     = fs.Int("levels", 2, "Finest refinement level (0 = base shape only)")
		epsilon    = fs.Float64("epsilon", 0, "Vertex dedup tolerance in radians (0 = default)")
		name       = fs.String("name", "surface", "Tessellation name (also the catalog name with --db)")
		configPath = fs.String("config", "", "JSON build config file (overrides --base/--levels/--epsilon)")
		out        = fs.String("out", "", "Output grid file path")
		dbPath     = fs.String("db", "", "Grid catalog database to store the grid in")
	)
	fs.Parse(args)

	if *out == "" && *dbPath == "" {
		return fmt.Errorf("nothing to do: pass --out and/or --db")
	}

	var (
		cfg        *config.GridConfig
		configJSON string
	)
	if *configPath != "" {
		var err error
		cfg, err = config.LoadGridConfig(*configPath)
		if err != nil {
			return err
		}
		if raw, err := json.Marshal(cfg); err == nil {
			configJSON = string(raw)
		}
	} else {
		cfg = &config.GridConfig{
			DedupEpsilon: epsilon,
			Tessellations: []config.TessellationConfig{{
				Name:      name,
				BaseShape: base,
				MaxLevel:  levels,
			}},
		}
		configJSON = fmt.Sprintf(`{"base_shape":%q,"max_level":%d}`, *base, *levels)
	}

	// The catalog name follows --name when given; with --config and no
	// explicit --name it follows the config's first tessellation instead
	// of the flag default.
	catalogName := *name
	if *configPath != "" {
		nameSet := false
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "name" {
				nameSet = true
			}
		})
		if !nameSet && len(cfg.Tessellations) > 0 && cfg.Tessellations[0].Name != nil {
			catalogName = *cfg.Tessellations[0].Name
		}
	}

	g, err := cfg.BuildGrid()
	if err != nil {
		return err
	}
	fmt.Fprint(stdout, g.String())

	if *out != "" {
		if err := g.WriteFile(*out); err != nil {
			return fmt.Errorf("failed to write grid file: %w", err)
		}
		fmt.Fprintf(stdout, "wrote %s\n", *out)
	}
	if *dbPath != "" {
		db, err := griddb.NewGridDB(*dbPath)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer db.Close()
		id, err := db.StoreGrid(catalogName, g, configJSON)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "stored grid %q as %s in %s\n", catalogName, id, *dbPath)
	}
	return nil
}

// parseTessRef interprets a --tess value: integers select by id, other
// strings by name.
func parseTessRef(raw string) tess.TessRef {
	if id, err := strconv.Atoi(raw); err == nil {
		return tess.ByID(id)
	}
	return tess.ByName(raw)
}

func runInspect(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	var (
		tessRef = fs.String("tess", "", "Tessellation id or name (default: all)")
		level   = fs.Int("level", -1, "Level to inspect (default: all)")
		dbPath  = fs.String("db", "", "Read the grid from a catalog instead of a file")
		gridID  = fs.String("grid", "", "Grid id or name in the catalog (with --db)")
	)
	// The grid file path usually precedes the flags (`grid inspect
	// earth.tess --level 1`), but stdlib flag stops parsing at the first
	// non-flag argument, so a leading path is pulled out before Parse.
	var path string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		path, args = args[0], args[1:]
	}
	fs.Parse(args)
	if path != "" && fs.NArg() > 0 || fs.NArg() > 1 {
		return fmt.Errorf("pass a single grid file path, or --db with --grid")
	}
	if path == "" && fs.NArg() == 1 {
		path = fs.Arg(0)
	}

	var (
		g   *tess.Grid
		err error
	)
	switch {
	case *dbPath != "":
		if *gridID == "" {
			return fmt.Errorf("--db requires --grid")
		}
		db, err := griddb.NewGridDB(*dbPath)
		if err != nil {
			return fmt.Errorf("failed to open catalog: %w", err)
		}
		defer db.Close()
		rec, err := db.GetGridByName(*gridID)
		if err != nil {
			rec, err = db.GetGrid(*gridID)
		}
		if err != nil {
			return fmt.Errorf("grid %q not found in %s", *gridID, *dbPath)
		}
		g, err = db.LoadGrid(rec.GridID)
		if err != nil {
			return err
		}
	case path != "":
		g, err = tess.LoadFile(path)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("pass a grid file path, or --db with --grid")
	}

	if *tessRef == "" && *level < 0 {
		fmt.Fprint(stdout, g.String())
		return nil
	}

	ref := tess.ByID(0)
	if *tessRef != "" {
		ref = parseTessRef(*tessRef)
	}
	id, err := g.Resolve(ref)
	if err != nil {
		return err
	}
	name, _ := g.TessName(id)

	levels, err := g.Levels(ref)
	if err != nil {
		return err
	}
	lo, hi := 0, levels
	if *level >= 0 {
		lo, hi = *level, *level+1
	}
	for lv := lo; lv < hi; lv++ {
		tris, err := g.Triangles(ref, lv)
		if err != nil {
			return err
		}
		verts, err := g.Vertices(ref, lv, true)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "tess %d (%s) level %d: %d triangles, %d vertices\n",
			id, name, lv, len(tris), len(verts))
	}
	return nil
}

func runReport(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	var (
		in  = fs.String("in", "", "Grid file to report on")
		out = fs.String("out", "report.html", "Output HTML path")
	)
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("--in is required")
	}
	g, err := tess.LoadFile(*in)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := report.Write(g, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		dbPath = fs.String("db", "grids.db", "Grid catalog database")
		listen = fs.String("listen", ":8080", "HTTP listen address")
	)
	fs.Parse(args)

	db, err := griddb.NewGridDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	mux := api.NewServer(db).ServeMux()
	db.AttachAdminRoutes(mux)

	log.Printf("[Serve] grid API listening on %s (catalog %s)", *listen, *dbPath)
	return http.ListenAndServe(*listen, httputil.LogRequests(mux))
}

func runDB(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	var (
		dbPath = fs.String("db", "grids.db", "Grid catalog database")
		dir    = fs.String("dir", "internal/griddb/migrations", "Migrations directory")
	)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("expected one subcommand: migrate-up, migrate-down or migrate-version")
	}

	db, err := griddb.NewGridDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	switch fs.Arg(0) {
	case "migrate-up":
		if err := db.MigrateUp(*dir); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "migrations applied")
	case "migrate-down":
		if err := db.MigrateDown(*dir); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "rolled back one migration")
	case "migrate-version":
		v, dirty, err := db.MigrateVersion(*dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "version %d (dirty=%v)\n", v, dirty)
	default:
		return fmt.Errorf("unknown db subcommand %q", fs.Arg(0))
	}
	return nil
}
