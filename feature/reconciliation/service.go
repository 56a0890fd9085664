package reconciliation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/export"
	"sheet-reconciler/core/logger"
	"sheet-reconciler/core/reconcile"
	"sheet-reconciler/core/source"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Request is the JSON body of the dataset endpoints.
type Request struct {
	File1    reconcile.Dataset         `json:"file1"`
	File2    reconcile.Dataset         `json:"file2"`
	Mappings []reconcile.ColumnMapping `json:"mappings"`
}

// TableRequest reconciles two database tables.
type TableRequest struct {
	Table1   string                    `json:"table1"`
	Table2   string                    `json:"table2"`
	Mappings []reconcile.ColumnMapping `json:"mappings"`
}

// Upload is one uploaded workbook or CSV file.
type Upload struct {
	FileName string
	Data     []byte
	Sheet    string
}

// ExportRequest selects what an export contains.
type ExportRequest struct {
	// Category limits the export to one category. Empty exports all.
	Category string
	// Split writes every row over numbered sheets and files.
	Split bool
	// Publish uploads the artifacts instead of returning them only.
	Publish bool
}

func (r ExportRequest) key() string {
	return fmt.Sprintf("%s|%t|%t", strings.ToLower(r.Category), r.Split, r.Publish)
}

// ExportOutcome is the result of an export.
type ExportOutcome struct {
	RunID     string             `json:"run_id"`
	Summary   reconcile.Summary  `json:"summary"`
	Artifacts []*export.Artifact `json:"artifacts"`
	Published []export.Published `json:"published,omitempty"`
}

// RunFunc produces the result an export is written from.
type RunFunc func(ctx context.Context) (*reconcile.Result, error)

// Service runs reconciliations and exports for the HTTP handler and the CLI.
type Service struct {
	engine    *reconcile.Engine
	exporter  *export.Exporter
	publisher *export.Publisher
	db        *gorm.DB
	chunkSize int
	logger    *zap.Logger

	exports singleflight.Group
}

// NewService creates a reconciliation service. publisher and db may be nil,
// which disables publishing and table datasets.
func NewService(engine *reconcile.Engine, exporter *export.Exporter, publisher *export.Publisher, db *gorm.DB, chunkSize int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		engine:    engine,
		exporter:  exporter,
		publisher: publisher,
		db:        db,
		chunkSize: chunkSize,
		logger:    logger,
	}
}

// Reconcile reconciles two in-memory datasets.
func (s *Service) Reconcile(ctx context.Context, req Request) (*reconcile.Result, error) {
	if req.File1.Name == "" {
		req.File1.Name = "file1"
	}
	if req.File2.Name == "" {
		req.File2.Name = "file2"
	}
	return s.engine.ProcessRows(ctx, req.File1, req.File2, req.Mappings, s.progress(req.File1.Name, req.File2.Name))
}

// ReconcileUploads reconciles two uploaded files.
func (s *Service) ReconcileUploads(ctx context.Context, f1, f2 Upload, mappings []reconcile.ColumnMapping) (*reconcile.Result, error) {
	src1, err := s.uploadSource(f1)
	if err != nil {
		return nil, err
	}
	src2, err := s.uploadSource(f2)
	if err != nil {
		return nil, err
	}
	return s.ReconcileSources(ctx, src1, src2, mappings)
}

// ReconcileTables reconciles two tables of the configured database.
func (s *Service) ReconcileTables(ctx context.Context, req TableRequest) (*reconcile.Result, error) {
	if s.db == nil {
		return nil, apperror.Validation("no database is configured")
	}
	src1 := source.NewTable(s.db, req.Table1, s.sourceOptions()...)
	src2 := source.NewTable(s.db, req.Table2, s.sourceOptions()...)
	return s.ReconcileSources(ctx, src1, src2, req.Mappings)
}

// ReconcileSources reconciles two streaming sources.
func (s *Service) ReconcileSources(ctx context.Context, src1, src2 reconcile.Source, mappings []reconcile.ColumnMapping) (*reconcile.Result, error) {
	return s.engine.ProcessFiles(ctx, src1, src2, mappings, s.progress(src1.Name(), src2.Name()))
}

// Export runs a reconciliation and exports it. Concurrent calls sharing a
// non-empty key and request join the first call and receive its outcome.
func (s *Service) Export(ctx context.Context, key string, run RunFunc, req ExportRequest) (*ExportOutcome, error) {
	if req.Publish && s.publisher == nil {
		return nil, apperror.Validation("publishing is not configured")
	}
	var category reconcile.Category
	if req.Category != "" {
		c, ok := reconcile.ParseCategory(req.Category)
		if !ok {
			return nil, apperror.Validation("unknown category %q", req.Category)
		}
		category = c
	}

	do := func() (any, error) {
		res, err := run(ctx)
		if err != nil {
			return nil, err
		}
		return s.export(ctx, res, category, req)
	}
	if key == "" {
		out, err := do()
		if err != nil {
			return nil, err
		}
		return out.(*ExportOutcome), nil
	}

	v, err, shared := s.exports.Do(key+"|"+req.key(), do)
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Export shared with a concurrent request", zap.String("key", key))
	}
	return v.(*ExportOutcome), nil
}

func (s *Service) export(ctx context.Context, res *reconcile.Result, category reconcile.Category, req ExportRequest) (*ExportOutcome, error) {
	log := logger.WithRun(s.logger, res.RunID)
	onProgress := func(pct int) {
		log.Debug("Export progress", zap.Int("percent", pct))
	}

	var (
		artifacts []*export.Artifact
		err       error
	)
	switch {
	case req.Split && category != "":
		artifacts, err = s.exporter.ExportSplit(ctx, res, []reconcile.Category{category}, onProgress)
	case req.Split:
		artifacts, err = s.exporter.ExportSplit(ctx, res, nil, onProgress)
	case category != "":
		var a *export.Artifact
		a, err = s.exporter.ExportCategory(ctx, res, category, onProgress)
		artifacts = []*export.Artifact{a}
	default:
		var a *export.Artifact
		a, err = s.exporter.ExportAll(ctx, res, onProgress)
		artifacts = []*export.Artifact{a}
	}
	if err != nil {
		log.Warn("Export failed", zap.Error(err))
		return nil, err
	}

	out := &ExportOutcome{RunID: res.RunID, Summary: res.Summary, Artifacts: artifacts}
	if req.Publish {
		if out.Published, err = s.publisher.Publish(ctx, res.RunID, artifacts); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Publisher returns the configured publisher or a validation error.
func (s *Service) Publisher() (*export.Publisher, error) {
	if s.publisher == nil {
		return nil, apperror.Validation("publishing is not configured")
	}
	return s.publisher, nil
}

func (s *Service) uploadSource(u Upload) (reconcile.Source, error) {
	if len(u.Data) == 0 {
		return nil, apperror.Validation("file %q is empty", u.FileName)
	}
	switch strings.ToLower(filepath.Ext(u.FileName)) {
	case ".csv":
		return source.NewCSVBytes(u.FileName, u.Data, s.sourceOptions()...), nil
	case ".xlsx", ".xlsm":
		return source.NewExcelBytes(u.FileName, u.Data, u.Sheet, s.sourceOptions()...), nil
	default:
		return nil, apperror.Validation("file %q is not an .xlsx or .csv file", u.FileName)
	}
}

func (s *Service) sourceOptions() []source.Option {
	return []source.Option{source.WithChunkSize(s.chunkSize), source.WithLogger(s.logger)}
}

func (s *Service) progress(name1, name2 string) reconcile.ProgressFunc {
	log := s.logger.With(zap.String("file1", name1), zap.String("file2", name2))
	return func(stage reconcile.Stage, pct int) {
		log.Debug("Reconciliation progress", zap.String("stage", string(stage)), zap.Int("percent", pct))
	}
}
