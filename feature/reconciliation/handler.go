package reconciliation

import (
	"archive/zip"
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"sheet-reconciler/core/apperror"
	"sheet-reconciler/core/export"
	"sheet-reconciler/core/logger"
	"sheet-reconciler/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunIDHeader carries the run id on workbook downloads.
const RunIDHeader = "X-Run-ID"

// DefaultPruneAge is the age beyond which prune removes published exports.
const DefaultPruneAge = 30 * 24 * time.Hour

// Handler handles HTTP requests for reconciliations.
type Handler struct {
	service *Service
	timeout time.Duration
}

// NewHandler creates a new HTTP handler. timeout bounds one reconciliation
// or export; zero disables it.
func NewHandler(service *Service, timeout time.Duration) *Handler {
	return &Handler{service: service, timeout: timeout}
}

// RegisterRoutes registers the reconciliation routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/reconciliation")
	group.Post("/", h.HandleReconcile)
	group.Post("/export", h.HandleExport)
	group.Post("/upload", h.HandleUpload)
	group.Post("/tables", h.HandleTables)
	group.Get("/exports", h.HandleListExports)
	group.Post("/exports/prune", h.HandlePruneExports)
	group.Get("/exports/*", h.HandleDownloadExport)
	group.Delete("/exports/*", h.HandleDeleteExport)
}

// HandleReconcile reconciles two JSON datasets and returns the full result,
// or only the summary with ?summary_only=true.
func (h *Handler) HandleReconcile(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return fail(c, l, apperror.New(apperror.KindValidation, "invalid request body", err))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.service.Reconcile(ctx, req)
	if err != nil {
		return fail(c, l, err)
	}
	logResult(l, res)

	if c.QueryBool("summary_only") {
		return c.JSON(summaryOf(res))
	}
	return c.JSON(res)
}

// HandleExport reconciles two JSON datasets and returns the workbook.
// Query: category, split, publish. Split exports spanning several files are
// returned as a zip archive; published exports return their object keys.
func (h *Handler) HandleExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req Request
	if err := c.BodyParser(&req); err != nil {
		return fail(c, l, apperror.New(apperror.KindValidation, "invalid request body", err))
	}
	key := uuid.NewSHA1(uuid.NameSpaceOID, c.Body()).String()

	ctx, cancel := h.context(c)
	defer cancel()

	out, err := h.service.Export(ctx, key, func(ctx context.Context) (*reconcile.Result, error) {
		return h.service.Reconcile(ctx, req)
	}, exportRequest(c))
	if err != nil {
		return fail(c, l, err)
	}
	return h.sendExport(c, l, out, c.QueryBool("publish"))
}

// HandleUpload reconciles two uploaded files (multipart fields file1, file2,
// sheet1, sheet2 and repeated map=file1col=file2col[:exact]). With export,
// publish or split set as a query parameter or a form field it answers like
// HandleExport.
func (h *Handler) HandleUpload(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	form, err := c.MultipartForm()
	if err != nil {
		return fail(c, l, apperror.New(apperror.KindValidation, "expected a multipart form", err))
	}
	f1, err := readUpload(form.File["file1"], firstValue(form.Value["sheet1"]), "file1")
	if err != nil {
		return fail(c, l, err)
	}
	f2, err := readUpload(form.File["file2"], firstValue(form.Value["sheet2"]), "file2")
	if err != nil {
		return fail(c, l, err)
	}
	mappings, err := reconcile.ParseMappings(form.Value["map"])
	if err != nil {
		return fail(c, l, err)
	}

	ctx, cancel := h.context(c)
	defer cancel()

	run := func(ctx context.Context) (*reconcile.Result, error) {
		return h.service.ReconcileUploads(ctx, f1, f2, mappings)
	}

	req := exportRequest(c)
	req.Split = req.Split || formFlag(form, "split")
	req.Publish = req.Publish || formFlag(form, "publish")
	if req.Category == "" {
		req.Category = firstValue(form.Value["category"])
	}
	if c.QueryBool("export") || formFlag(form, "export") || req.Split || req.Publish {
		out, err := h.service.Export(ctx, "", run, req)
		if err != nil {
			return fail(c, l, err)
		}
		return h.sendExport(c, l, out, req.Publish)
	}

	res, err := run(ctx)
	if err != nil {
		return fail(c, l, err)
	}
	logResult(l, res)
	return c.JSON(summaryOf(res))
}

// HandleTables reconciles two tables of the configured database.
func (h *Handler) HandleTables(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	var req TableRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, l, apperror.New(apperror.KindValidation, "invalid request body", err))
	}

	ctx, cancel := h.context(c)
	defer cancel()

	res, err := h.service.ReconcileTables(ctx, req)
	if err != nil {
		return fail(c, l, err)
	}
	logResult(l, res)

	if c.QueryBool("summary_only") {
		return c.JSON(summaryOf(res))
	}
	return c.JSON(res)
}

// HandleListExports lists published exports.
func (h *Handler) HandleListExports(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	pub, err := h.service.Publisher()
	if err != nil {
		return fail(c, l, err)
	}
	items, err := pub.List(c.UserContext())
	if err != nil {
		return fail(c, l, err)
	}
	if items == nil {
		items = []export.Published{}
	}
	return c.JSON(fiber.Map{"exports": items})
}

// HandleDownloadExport streams a published export.
func (h *Handler) HandleDownloadExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	pub, err := h.service.Publisher()
	if err != nil {
		return fail(c, l, err)
	}
	// The object stream outlives this call, so no request timeout applies.
	rc, info, err := pub.Open(c.UserContext(), c.Params("*"))
	if err != nil {
		return fail(c, l, err)
	}

	c.Attachment(path.Base(info.Key))
	c.Set(fiber.HeaderContentType, export.ContentType)
	return c.SendStream(rc, int(info.Size))
}

// HandleDeleteExport removes a published export.
func (h *Handler) HandleDeleteExport(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	pub, err := h.service.Publisher()
	if err != nil {
		return fail(c, l, err)
	}
	key := c.Params("*")
	if err := pub.Remove(c.UserContext(), key); err != nil {
		return fail(c, l, err)
	}
	l.Info("Export removed", zap.String("key", key))
	return c.JSON(fiber.Map{"status": "deleted", "key": key})
}

// HandlePruneExports removes exports older than ?older_than (a Go duration,
// default 720h).
func (h *Handler) HandlePruneExports(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	pub, err := h.service.Publisher()
	if err != nil {
		return fail(c, l, err)
	}

	age := DefaultPruneAge
	if raw := c.Query("older_than"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return fail(c, l, apperror.Validation("invalid older_than %q", raw))
		}
		age = d
	}

	removed, err := pub.Prune(c.UserContext(), age)
	if err != nil {
		return fail(c, l, err)
	}
	return c.JSON(fiber.Map{"status": "pruned", "removed": removed})
}

func (h *Handler) context(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func (h *Handler) sendExport(c *fiber.Ctx, l *zap.Logger, out *ExportOutcome, published bool) error {
	l = logger.WithRun(l, out.RunID)
	c.Set(RunIDHeader, out.RunID)

	if published {
		l.Info("Export published", zap.Int("files", len(out.Published)))
		return c.JSON(out)
	}

	if len(out.Artifacts) == 1 {
		a := out.Artifacts[0]
		l.Info("Export ready", zap.String("file", a.FileName), zap.Int64("bytes", a.Size()))
		c.Attachment(a.FileName)
		c.Set(fiber.HeaderContentType, export.ContentType)
		return c.Send(a.Data)
	}

	data, err := zipArtifacts(out.Artifacts)
	if err != nil {
		return fail(c, l, err)
	}
	name := strings.TrimSuffix(out.Artifacts[0].FileName, "_part1"+export.FileExtension) + ".zip"
	l.Info("Split export ready", zap.String("file", name), zap.Int("parts", len(out.Artifacts)))
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, "application/zip")
	return c.Send(data)
}

func exportRequest(c *fiber.Ctx) ExportRequest {
	return ExportRequest{
		Category: c.Query("category"),
		Split:    c.QueryBool("split"),
		Publish:  c.QueryBool("publish"),
	}
}

func summaryOf(res *reconcile.Result) fiber.Map {
	return fiber.Map{
		"run_id":       res.RunID,
		"generated_at": res.GeneratedAt,
		"file1_name":   res.File1Name,
		"file2_name":   res.File2Name,
		"summary":      res.Summary,
	}
}

func logResult(l *zap.Logger, res *reconcile.Result) {
	logger.WithRun(l, res.RunID).Info("Reconciliation finished",
		zap.Int("matched", res.Summary.Matched),
		zap.Int("file1_only", res.Summary.InFile1Only),
		zap.Int("file2_only", res.Summary.InFile2Only),
		zap.Float64("match_rate", res.Summary.MatchRate),
	)
}

func zipArtifacts(artifacts []*export.Artifact) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, a := range artifacts {
		w, err := zw.Create(a.FileName)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(a.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
