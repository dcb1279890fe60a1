// Package pipeline sequences acquisition, reconciliation, validation and
// export for one ingestion run.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/engsaleh/quran-pipeline/internal/domain"
	"github.com/engsaleh/quran-pipeline/internal/reconcile"
	"github.com/engsaleh/quran-pipeline/internal/validate"
)

// Default edition identifiers of the upstream source.
const (
	DefaultSimpleEdition  = "quran-simple"
	DefaultUthmaniEdition = "quran-uthmani"
)

// SourceSurahs names the surah metadata acquisition in errors and logs.
const SourceSurahs = "surahs"

// Gateway supplies the raw corpus. Implementations own retries; a returned
// error is terminal for the run.
type Gateway interface {
	FetchSurahs(ctx context.Context) ([]domain.Surah, error)
	FetchVerses(ctx context.Context, edition string) ([]domain.RawVerse, error)
}

// Sink persists a validated corpus. Verse order in the corpus is not
// guaranteed; sinks sort within a surah themselves.
type Sink interface {
	Name() string
	Write(ctx context.Context, corpus domain.Corpus, info domain.ExportInfo) ([]domain.Artifact, error)
}

// ReportWriter records validation diagnostics. It runs whether or not the
// completeness check passes.
type ReportWriter interface {
	WriteReport(ctx context.Context, info domain.ExportInfo) (domain.Artifact, error)
}

// Locker abstracts advisory lock acquisition around a run.
type Locker interface {
	TryLock(ctx context.Context) error
	Unlock() error
}

// Editions names the two upstream text editions.
type Editions struct {
	Simple  string
	Uthmani string
}

// Result summarizes a run. It is returned alongside CompletenessError and
// ExportError so callers can report what happened.
type Result struct {
	RunID        string
	StartedAt    time.Time
	Duration     time.Duration
	Corpus       domain.Corpus
	Reconcile    reconcile.Report
	Completeness *domain.Outcome
	Quality      *domain.Outcome
	Report       *domain.Artifact
	Sinks        []SinkResult
}

// Exported reports whether the run reached the export stage.
func (r *Result) Exported() bool {
	return len(r.Sinks) > 0
}

// Service runs the ingestion pipeline.
type Service struct {
	gateway   Gateway
	validator *validate.Validator
	sinks     []Sink
	report    ReportWriter
	locker    Locker
	logger    *slog.Logger
	editions  Editions
	version   string
	now       func() time.Time
	newRunID  func() string
}

// ServiceOption configures optional Service dependencies.
type ServiceOption func(*Service)

// WithReportWriter sets the diagnostics report writer.
func WithReportWriter(w ReportWriter) ServiceOption {
	return func(s *Service) { s.report = w }
}

// WithLocker guards each run with an advisory lock.
func WithLocker(l Locker) ServiceOption {
	return func(s *Service) { s.locker = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithEditions overrides the upstream edition identifiers.
func WithEditions(e Editions) ServiceOption {
	return func(s *Service) { s.editions = e }
}

// WithVersion sets the version stamped on exports.
func WithVersion(v string) ServiceOption {
	return func(s *Service) { s.version = v }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithRunID overrides run identifier generation.
func WithRunID(f func() string) ServiceOption {
	return func(s *Service) { s.newRunID = f }
}

// NewService creates a Service. Sinks run in the given order.
func NewService(gateway Gateway, validator *validate.Validator, sinks []Sink, opts ...ServiceOption) *Service {
	s := &Service{
		gateway:   gateway,
		validator: validator,
		sinks:     sinks,
		logger:    slog.New(slog.DiscardHandler),
		editions:  Editions{Simple: DefaultSimpleEdition, Uthmani: DefaultUthmaniEdition},
		now:       func() time.Time { return time.Now().UTC() },
		newRunID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one ingestion. Collection failures abort before any
// processing. A failed completeness check returns *CompletenessError and
// skips persistence. Text-quality issues are logged and never stop the run.
// Every sink is attempted; any sink failure returns *ExportError.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: s.newRunID(), StartedAt: s.now()}
	log := s.logger.With("run_id", res.RunID)
	defer func() { res.Duration = s.now().Sub(res.StartedAt) }()

	if s.locker != nil {
		if err := s.locker.TryLock(ctx); err != nil {
			return res, err
		}
		defer func() {
			if err := s.locker.Unlock(); err != nil {
				log.Warn("could not release run lock", "error", err)
			}
		}()
	}

	log.Info("collecting corpus", "simple", s.editions.Simple, "uthmani", s.editions.Uthmani)
	acq, err := s.collect(ctx)
	if err != nil {
		log.Error("collection failed", "error", err)
		return res, err
	}
	log.Info("corpus collected",
		"surahs", len(acq.surahs), "simple_verses", len(acq.simple), "uthmani_verses", len(acq.uthmani))

	verses, report := reconcile.Reconcile(acq.simple, acq.uthmani)
	res.Corpus = domain.Corpus{Surahs: acq.surahs, Verses: verses}
	res.Reconcile = report
	s.logReconcile(log, len(verses), report)

	res.Completeness = s.validator.Completeness(res.Corpus.Surahs, res.Corpus.Verses)
	res.Quality = s.validator.TextQuality(res.Corpus.Verses)

	info := domain.ExportInfo{
		RunID:        res.RunID,
		Version:      s.version,
		GeneratedAt:  res.StartedAt,
		Sources:      []string{s.editions.Simple, s.editions.Uthmani},
		Dropped:      report.Dropped(),
		Duplicates:   report.Duplicates,
		Completeness: res.Completeness,
		Quality:      res.Quality,
	}
	if art := s.writeReport(ctx, log, info); art != nil {
		res.Report = art
		info.Report = art.Name
	}

	if !res.Completeness.Valid {
		for _, issue := range res.Completeness.Issues {
			log.Error("completeness issue", "issue", issue)
		}
		return res, &CompletenessError{Outcome: res.Completeness}
	}
	log.Info("completeness check passed",
		"surahs", len(res.Corpus.Surahs), "verses", len(res.Corpus.Verses))

	if !res.Quality.Valid {
		log.Warn("text quality issues found; continuing",
			"problematic_verses", res.Quality.Metadata[validate.KeyProblematicVerses])
		for _, issue := range res.Quality.Issues {
			log.Debug("text quality issue", "issue", issue)
		}
	} else {
		log.Info("text quality check passed")
	}

	res.Sinks = s.export(ctx, log, res.Corpus, info)
	for _, r := range res.Sinks {
		if r.Err != nil {
			return res, &ExportError{Results: res.Sinks}
		}
	}
	log.Info("run complete", "sinks", len(res.Sinks))
	return res, nil
}

type acquisition struct {
	surahs  []domain.Surah
	simple  []domain.RawVerse
	uthmani []domain.RawVerse
}

// collect issues the three acquisitions concurrently. The first failure
// cancels the others and no partial result is returned.
func (s *Service) collect(ctx context.Context) (*acquisition, error) {
	var acq acquisition
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		surahs, err := s.gateway.FetchSurahs(gctx)
		if err != nil {
			return &CollectionError{Source: SourceSurahs, Err: err}
		}
		if len(surahs) == 0 {
			return &CollectionError{Source: SourceSurahs, Err: ErrIncompleteCollection}
		}
		acq.surahs = surahs
		return nil
	})
	g.Go(func() error {
		verses, err := s.fetchEdition(gctx, s.editions.Simple)
		acq.simple = verses
		return err
	})
	g.Go(func() error {
		verses, err := s.fetchEdition(gctx, s.editions.Uthmani)
		acq.uthmani = verses
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &acq, nil
}

func (s *Service) fetchEdition(ctx context.Context, edition string) ([]domain.RawVerse, error) {
	verses, err := s.gateway.FetchVerses(ctx, edition)
	if err != nil {
		return nil, &CollectionError{Source: edition, Err: err}
	}
	if len(verses) == 0 {
		return nil, &CollectionError{Source: edition, Err: ErrIncompleteCollection}
	}
	return verses, nil
}

func (s *Service) logReconcile(log *slog.Logger, merged int, report reconcile.Report) {
	for _, k := range report.MissingSimple {
		log.Warn("verse missing from simple edition", "verse", k.String())
	}
	for _, k := range report.MissingUthmani {
		log.Warn("verse missing from uthmani edition", "verse", k.String())
	}
	for _, k := range report.Duplicates {
		log.Warn("duplicate verse in uthmani edition", "verse", k.String())
	}
	log.Info("verses reconciled", "merged", merged, "dropped", report.DroppedCount())
}

// writeReport records diagnostics. A failure here is logged and does not
// affect the run.
func (s *Service) writeReport(ctx context.Context, log *slog.Logger, info domain.ExportInfo) *domain.Artifact {
	if s.report == nil {
		return nil
	}
	art, err := s.report.WriteReport(ctx, info)
	if err != nil {
		log.Warn("could not write validation report", "error", err)
		return nil
	}
	log.Debug("validation report written", "path", art.Path)
	return &art
}

func (s *Service) export(ctx context.Context, log *slog.Logger, corpus domain.Corpus, info domain.ExportInfo) []SinkResult {
	results := make([]SinkResult, 0, len(s.sinks))
	for _, sink := range s.sinks {
		start := s.now()
		artifacts, err := sink.Write(ctx, corpus, info)
		r := SinkResult{
			Name:      sink.Name(),
			Artifacts: artifacts,
			Err:       err,
			Duration:  s.now().Sub(start),
		}
		if err != nil {
			log.Error("export failed", "sink", r.Name, "error", err)
		} else {
			log.Info("export complete", "sink", r.Name, "artifacts", len(artifacts), "duration", r.Duration)
		}
		results = append(results, r)
	}
	return results
}
