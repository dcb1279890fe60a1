package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/engsaleh/quran-pipeline/internal/alquran"
	"github.com/engsaleh/quran-pipeline/internal/config"
	"github.com/engsaleh/quran-pipeline/internal/domain"
	"github.com/engsaleh/quran-pipeline/internal/export"
	"github.com/engsaleh/quran-pipeline/internal/fs"
	"github.com/engsaleh/quran-pipeline/internal/lock"
	"github.com/engsaleh/quran-pipeline/internal/logging"
	"github.com/engsaleh/quran-pipeline/internal/pipeline"
	"github.com/engsaleh/quran-pipeline/internal/store/postgres"
	"github.com/engsaleh/quran-pipeline/internal/store/sqlite"
	"github.com/engsaleh/quran-pipeline/internal/validate"
)

// newRunners wires the production services to the layered settings.
func newRunners(v *viper.Viper) Runners {
	load := func() (config.Config, error) { return config.Load(v) }
	return Runners{
		Run:    &pipelineAdapter{load: load, console: os.Stderr},
		Verify: &verifyAdapter{load: load},
		Show:   &showAdapter{load: load},
		Config: load,
	}
}

// --- pipelineAdapter ---

type pipelineAdapter struct {
	load    ConfigLoader
	console io.Writer
}

func (a *pipelineAdapter) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	cfg, err := a.load()
	if err != nil {
		return nil, err
	}
	if opts.NoBundle {
		cfg.Output.Bundle = false
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, &ContextError{Op: "creating output directory", Path: cfg.Output.Dir, Err: err}
	}

	logFile := cfg.Output.Path(cfg.Log.File)
	logger, closer, err := newLogger(cfg, logFile, a.console)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	client := alquran.New(alquranOptions(cfg, logger))
	defer client.Close()

	out := &fs.OutputDir{Root: cfg.Output.Dir}
	sinks := []pipeline.Sink{
		sqlite.NewSink(cfg.Output.Path(cfg.Output.DatabaseFile)),
		export.NewJSONSink(out, cfg.Output.CompleteJSON, cfg.Output.SimpleJSON, cfg.API.BaseURL),
		export.NewStatisticsSink(out, cfg.Output.StatisticsFile),
	}
	if cfg.Postgres.DSN != "" {
		db, err := postgres.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, &ContextError{Op: "connecting to postgres", Err: err}
		}
		defer db.Close()
		sinks = append(sinks, postgres.NewSink(db))
	}
	if cfg.Output.Bundle {
		members := []string{cfg.Output.CompleteJSON, cfg.Output.SimpleJSON, cfg.Output.StatisticsFile}
		sinks = append(sinks, export.NewBundleSink(out, cfg.Output.BundleFile, members))
	}

	svc := pipeline.NewService(client, validate.New(domain.StandardReference()), sinks,
		pipeline.WithReportWriter(export.NewReportWriter(out, cfg.Output.ReportFile)),
		pipeline.WithLocker(lock.ForDir(cfg.Output.Dir)),
		pipeline.WithLogger(logger),
		pipeline.WithEditions(pipeline.Editions{Simple: cfg.Editions.Simple, Uthmani: cfg.Editions.Uthmani}),
		pipeline.WithVersion(Version),
	)

	res, err := svc.Run(ctx)
	report := toRunReport(res)
	report.OutputDir = cfg.Output.Dir
	report.LogFile = logFile
	return report, err
}

func newLogger(cfg config.Config, file string, console io.Writer) (*slog.Logger, io.Closer, error) {
	fileLevel, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	format, err := logging.ParseFormat(cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	consoleLevel := logging.LevelInfo
	if GetVerbose() {
		consoleLevel = logging.LevelDebug
	}
	return logging.New(logging.Options{
		File:         file,
		FileLevel:    fileLevel,
		FileFormat:   format,
		Console:      console,
		ConsoleLevel: consoleLevel,
	})
}

func alquranOptions(cfg config.Config, logger *slog.Logger) alquran.Options {
	ua := cfg.API.UserAgent
	if ua == "" {
		ua = "QuranPipeline/" + Version
	}
	return alquran.Options{
		BaseURL:         cfg.API.BaseURL,
		UserAgent:       ua,
		Timeout:         cfg.API.Timeout,
		ConnectTimeout:  cfg.API.ConnectTimeout,
		KeepAlive:       cfg.API.KeepAlive,
		MaxAttempts:     cfg.API.MaxRetries,
		BackoffBase:     cfg.API.BackoffBase,
		MaxConns:        cfg.API.MaxConns,
		MaxConnsPerHost: cfg.API.MaxConnsPerHost,
		Logger:          logger.With("component", "alquran"),
	}
}

// toRunReport converts a pipeline result for display.
func toRunReport(res *pipeline.Result) *RunReport {
	r := &RunReport{
		RunID:        res.RunID,
		Duration:     res.Duration.Round(10 * time.Millisecond).String(),
		Surahs:       len(res.Corpus.Surahs),
		Verses:       len(res.Corpus.Verses),
		Dropped:      make([]string, 0, res.Reconcile.DroppedCount()),
		Completeness: res.Completeness,
		Quality:      res.Quality,
		Sinks:        make([]SinkReport, 0, len(res.Sinks)),
	}
	for _, k := range res.Reconcile.Dropped() {
		r.Dropped = append(r.Dropped, k.String())
	}
	if res.Report != nil {
		r.ReportFile = res.Report.Path
	}
	for _, s := range res.Sinks {
		sr := SinkReport{Name: s.Name, Artifacts: s.Artifacts, Duration: s.Duration.String()}
		if s.Err != nil {
			sr.Error = s.Err.Error()
		}
		if sr.Artifacts == nil {
			sr.Artifacts = []domain.Artifact{}
		}
		r.Sinks = append(r.Sinks, sr)
	}
	return r
}

// --- verifyAdapter ---

type verifyAdapter struct {
	load ConfigLoader
}

func (a *verifyAdapter) Verify(ctx context.Context) (*VerifyReport, error) {
	store, path, err := openStore(ctx, a.load)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	corpus, err := store.Corpus(ctx)
	if err != nil {
		return nil, &ContextError{Op: "reading database", Path: path, Err: err}
	}
	meta, err := store.Metadata(ctx)
	if err != nil {
		return nil, &ContextError{Op: "reading database", Path: path, Err: err}
	}

	v := validate.New(domain.StandardReference())
	return &VerifyReport{
		Database:     path,
		Metadata:     meta,
		Surahs:       len(corpus.Surahs),
		Verses:       len(corpus.Verses),
		Completeness: v.Completeness(corpus.Surahs, corpus.Verses),
		Quality:      v.TextQuality(corpus.Verses),
	}, nil
}

// --- showAdapter ---

type showAdapter struct {
	load ConfigLoader
}

func (a *showAdapter) Show(ctx context.Context, ref Reference) (*ShowResult, error) {
	store, _, err := openStore(ctx, a.load)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	surah, err := store.Surah(ctx, ref.Surah)
	if err != nil {
		return nil, err
	}
	if ref.Verse > 0 {
		v, err := store.Verse(ctx, domain.VerseKey{Surah: ref.Surah, Verse: ref.Verse})
		if err != nil {
			return nil, err
		}
		return &ShowResult{Surah: surah, Verses: []domain.Verse{v}}, nil
	}
	verses, err := store.SurahVerses(ctx, ref.Surah)
	if err != nil {
		return nil, err
	}
	return &ShowResult{Surah: surah, Verses: verses}, nil
}

// openStore opens the configured SQLite export. It refuses to create a new
// database so a typo in the path is reported rather than hidden.
func openStore(ctx context.Context, load ConfigLoader) (*sqlite.Store, string, error) {
	cfg, err := load()
	if err != nil {
		return nil, "", err
	}
	path := cfg.Output.Path(cfg.Output.DatabaseFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, path, &ContextError{Path: path, Err: ErrNoDatabase}
		}
		return nil, path, &ContextError{Op: "opening database", Path: path, Err: err}
	}
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return nil, path, &ContextError{Op: "opening database", Path: path, Err: err}
	}
	return store, path, nil
}
