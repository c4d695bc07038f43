// Command morfo runs the drainage-basin morphometric analyses over GeoJSON
// layers: "elongacion" computes the Schumm elongation ratio per basin,
// "gradiente" computes the Hack SL-K stream-gradient index along a river
// profile, and "runs" lists persisted analysis runs.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/geomorfo/morfometria/internal/config"
	"github.com/geomorfo/morfometria/internal/geomio"
	"github.com/geomorfo/morfometria/internal/morpho"
	"github.com/geomorfo/morfometria/internal/morphodb"
	"github.com/geomorfo/morfometria/internal/report"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: morfo <command> [flags]

commands:
  elongacion   compute the Schumm elongation ratio per basin
  gradiente    compute the Hack SL-K gradient index along a river profile
  runs         list persisted analysis runs

run "morfo <command> -h" for the command's flags
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	switch os.Args[1] {
	case "elongacion":
		err = runElongation(sugar, os.Args[2:])
	case "gradiente":
		err = runGradient(sugar, os.Args[2:])
	case "runs":
		err = listRuns(sugar, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		sugar.Errorf("%v", err)
		os.Exit(1)
	}
}

// loadConfig loads the optional parameter file, returning defaults when no
// path is given.
func loadConfig(path string) (*config.AnalysisConfig, error) {
	if path == "" {
		return config.EmptyAnalysisConfig(), nil
	}
	return config.LoadAnalysisConfig(path)
}

// forward hands the engine diagnostics to the logger at their severity.
func forward(sugar *zap.SugaredLogger, diags morpho.Diagnostics) {
	for _, d := range diags {
		switch d.Severity {
		case morpho.SeverityWarning:
			sugar.Warnf("%s", d.Message)
		case morpho.SeverityError:
			sugar.Errorf("%s", d.Message)
		default:
			sugar.Infof("%s", d.Message)
		}
	}
}

func runElongation(sugar *zap.SugaredLogger, args []string) error {
	fs := flag.NewFlagSet("elongacion", flag.ExitOnError)
	basinsPath := fs.String("cuencas", "", "basin polygon layer (GeoJSON, required)")
	pointsPath := fs.String("puntos", "", "elevation point layer (GeoJSON, required)")
	outPath := fs.String("salida", "", "output layer with computed attributes (GeoJSON)")
	reportDir := fs.String("reporte", "", "HTML report output directory")
	plotPath := fs.String("grafico", "", "class histogram figure (PNG)")
	dbPath := fs.String("db", "", "run database (SQLite); runs are persisted when set")
	configPath := fs.String("config", "", "parameter file (JSON)")
	fs.Parse(args)

	if *basinsPath == "" || *pointsPath == "" {
		return fmt.Errorf("elongacion: -cuencas and -puntos are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	fields := cfg.FieldCandidates()

	basins, err := geomio.ReadBasins(*basinsPath, fields)
	if err != nil {
		return err
	}
	sugar.Infof("loaded %d basins from %s (%d skipped)", len(basins.Basins), *basinsPath, basins.Skipped)

	points, err := geomio.ReadPoints(*pointsPath, fields)
	if err != nil {
		return err
	}
	sugar.Infof("loaded %d points from %s (%d skipped)", len(points.Points), *pointsPath, points.Skipped)

	results, diags, err := morpho.ComputeElongation(basins.Basins, points.Points, geomio.PointInBasin)
	forward(sugar, diags)
	if err != nil {
		return err
	}

	stats := morpho.AggregateElongation(results)
	fmt.Print(report.FormatElongationSummary(stats))

	if *outPath != "" {
		if err := basins.WriteElongation(*outPath, results); err != nil {
			return err
		}
		sugar.Infof("output layer written to %s", *outPath)
	}
	if *reportDir != "" {
		rep := report.ElongationReport{Stats: stats, Results: results, Diags: diags}
		if err := report.WriteElongationReport(*reportDir, rep); err != nil {
			return err
		}
		sugar.Infof("HTML report written to %s", *reportDir)
	}
	if *plotPath != "" {
		if err := report.SaveClassHistogramPNG(*plotPath, stats); err != nil {
			return err
		}
		sugar.Infof("figure written to %s", *plotPath)
	}
	if *dbPath != "" {
		if err := persistElongation(sugar, *dbPath, *basinsPath, *outPath, cfg, results, stats, diags); err != nil {
			return err
		}
	}
	return nil
}

func runGradient(sugar *zap.SugaredLogger, args []string) error {
	fs := flag.NewFlagSet("gradiente", flag.ExitOnError)
	pointsPath := fs.String("puntos", "", "river elevation point layer (GeoJSON, required)")
	outPath := fs.String("salida", "", "output layer with computed attributes (GeoJSON)")
	reportDir := fs.String("reporte", "", "HTML report output directory")
	plotPath := fs.String("grafico", "", "longitudinal profile figure (PNG)")
	dbPath := fs.String("db", "", "run database (SQLite); runs are persisted when set")
	configPath := fs.String("config", "", "parameter file (JSON)")
	filterFlag := fs.Bool("filtrar", true, "apply the statistical anomaly filter")
	fs.Parse(args)

	if *pointsPath == "" {
		return fmt.Errorf("gradiente: -puntos is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	// The flag overrides the config only when given explicitly.
	params := cfg.GradientParams()
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "filtrar" {
			params.FilterAnomalies = *filterFlag
		}
	})

	points, err := geomio.ReadPoints(*pointsPath, cfg.FieldCandidates())
	if err != nil {
		return err
	}
	sugar.Infof("loaded %d points from %s (%d skipped)", len(points.Points), *pointsPath, points.Skipped)

	ordered, orderDiags := morpho.OrderByFlow(points.Points, points.ExplicitOrder(), cfg.OrderingParams())
	forward(sugar, orderDiags)

	results, diags, err := morpho.ComputeGradient(ordered, params)
	forward(sugar, diags)
	if err != nil {
		return err
	}
	diags = append(orderDiags, diags...)

	stats := morpho.AggregateGradient(results)
	fmt.Print(report.FormatGradientSummary(stats))

	if *outPath != "" {
		if err := points.WriteGradient(*outPath, results); err != nil {
			return err
		}
		sugar.Infof("output layer written to %s", *outPath)
	}
	if *reportDir != "" {
		rep := report.GradientReport{Stats: stats, Results: results, Diags: diags}
		if err := report.WriteGradientReport(*reportDir, rep); err != nil {
			return err
		}
		sugar.Infof("HTML report written to %s", *reportDir)
	}
	if *plotPath != "" {
		if err := report.SaveProfilePNG(*plotPath, results); err != nil {
			return err
		}
		sugar.Infof("figure written to %s", *plotPath)
	}
	if *dbPath != "" {
		if err := persistGradient(sugar, *dbPath, *pointsPath, *outPath, cfg, results, stats, diags); err != nil {
			return err
		}
	}
	return nil
}

func listRuns(sugar *zap.SugaredLogger, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	dbPath := fs.String("db", "", "run database (SQLite, required)")
	kind := fs.String("tipo", "", "filter by run kind (elongacion|gradiente)")
	limit := fs.Int("limite", 20, "maximum runs to list")
	fs.Parse(args)

	if *dbPath == "" {
		return fmt.Errorf("runs: -db is required")
	}

	db, err := openRunDB(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := morphodb.NewRunStore(db).ListRuns(*kind, *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		sugar.Infof("no runs recorded")
		return nil
	}
	for _, r := range runs {
		fmt.Printf("%s  %-10s  %4d features  %2d warnings  %s\n",
			time.Unix(0, r.CreatedAt).Format("2006-01-02 15:04:05"),
			r.Kind, r.FeatureCount, r.WarningCount, r.RunID)
	}
	return nil
}

func openRunDB(path string) (*morphodb.DB, error) {
	db, err := morphodb.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func persistElongation(sugar *zap.SugaredLogger, dbPath, inputPath, outputPath string, cfg *config.AnalysisConfig, results []morpho.ElongationResult, stats morpho.ElongationStats, diags morpho.Diagnostics) error {
	db, err := openRunDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := morphodb.NewRunStore(db)
	run := &morphodb.Run{
		Kind:         morphodb.KindElongation,
		InputPath:    inputPath,
		OutputPath:   outputPath,
		ParamsJSON:   marshalParams(cfg),
		FeatureCount: len(results),
		WarningCount: diags.WarningCount(),
		StatsJSON:    marshalStats(stats.FlatMap()),
	}
	if err := store.InsertRun(run); err != nil {
		return err
	}
	if err := store.InsertElongationResults(run.RunID, results); err != nil {
		return err
	}
	sugar.Infof("run %s persisted to %s", run.RunID, dbPath)
	return nil
}

func persistGradient(sugar *zap.SugaredLogger, dbPath, inputPath, outputPath string, cfg *config.AnalysisConfig, results []morpho.GradientResult, stats morpho.GradientStats, diags morpho.Diagnostics) error {
	db, err := openRunDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	store := morphodb.NewRunStore(db)
	run := &morphodb.Run{
		Kind:         morphodb.KindGradient,
		InputPath:    inputPath,
		OutputPath:   outputPath,
		ParamsJSON:   marshalParams(cfg),
		FeatureCount: len(results),
		WarningCount: diags.WarningCount(),
		StatsJSON:    marshalStats(stats.FlatMap()),
	}
	if err := store.InsertRun(run); err != nil {
		return err
	}
	if err := store.InsertGradientResults(run.RunID, results); err != nil {
		return err
	}
	sugar.Infof("run %s persisted to %s", run.RunID, dbPath)
	return nil
}

func marshalParams(cfg *config.AnalysisConfig) json.RawMessage {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	return data
}

func marshalStats(m map[string]interface{}) json.RawMessage {
	data, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return data
}
