package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/prometheus"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// maxFailReasonLen bounds the stored failure text on an artifact row.
const maxFailReasonLen = 500

// Service generates report documents and manages the stored artifacts.
// Generation is synchronous; the route layer restricts the whole surface to
// managers.
type Service interface {
	GenerateWeekly(ctx context.Context, actor *auth.Claims, input *GenerateInput) (*report.Artifact, error)
	GenerateDaily(ctx context.Context, actor *auth.Claims, input *GenerateInput) (*report.Artifact, error)
	ListArtifacts(ctx context.Context, actor *auth.Claims, input *ListArtifactsInput) (*ArtifactList, error)
	GetArtifact(ctx context.Context, actor *auth.Claims, id common.ID) (*report.Artifact, error)
	DownloadArtifact(ctx context.Context, actor *auth.Claims, id common.ID) (*Download, error)
	DeleteArtifact(ctx context.Context, actor *auth.Claims, id common.ID) error
}

// GenerateInput requests one document in one format. Date is any day inside
// the wanted period (the week is normalized to its Monday); zero means today.
type GenerateInput struct {
	Date            common.Date   `json:"date,omitempty"`
	Format          report.Format `json:"format"`
	FilterUserID    common.ID     `json:"user_id,omitempty"`
	FilterProfileID common.ID     `json:"profile_id,omitempty"`
}

// ListArtifactsInput filters the artifact listing.
type ListArtifactsInput struct {
	Kind     report.Kind           `json:"kind,omitempty"`
	Format   report.Format         `json:"format,omitempty"`
	Status   report.ArtifactStatus `json:"status,omitempty"`
	Page     int                   `json:"page,omitempty"`
	PageSize int                   `json:"page_size,omitempty"`
}

// ArtifactList is one page of artifact rows.
type ArtifactList struct {
	Artifacts  []*report.Artifact `json:"artifacts"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// Download carries a stored document and the headers to serve it with.
type Download struct {
	Artifact    *report.Artifact
	Data        []byte
	ContentType string
	FileName    string
}

// EventPublisher pushes activity records onto the event stream. Implemented
// by kafka.ActivityPublisher. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, rec *activity.ActivityRecord)
}

// Lock serializes generation runs that would write the same document.
type Lock interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// LockFactory hands out a named lock. Backed by redis.NewMutex in the
// server; nil disables locking for single-instance deployments.
type LockFactory func(name string) Lock

// Config wires the service. NewLock, Events, and Metrics are optional.
type Config struct {
	Artifacts    report.Repository
	Engine       *Engine
	Renderers    []Renderer
	Storage      minio.ObjectStorageRepository
	ReportBucket string

	// GenerationTimeout bounds one generate call end to end, including the
	// period lock wait. Zero disables the bound.
	GenerationTimeout time.Duration

	NewLock LockFactory
	Events  EventPublisher
	Metrics *prometheus.AppMetrics
	Logger  logging.Logger
}

type serviceImpl struct {
	artifacts    report.Repository
	engine       *Engine
	renderers    map[report.Format]Renderer
	storage      minio.ObjectStorageRepository
	reportBucket string
	genTimeout   time.Duration

	newLock LockFactory
	events  EventPublisher
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewService constructs the reporting service.
func NewService(cfg Config) (Service, error) {
	switch {
	case cfg.Artifacts == nil:
		return nil, errors.Validation("reporting service requires an artifact repository")
	case cfg.Engine == nil:
		return nil, errors.Validation("reporting service requires an engine")
	case len(cfg.Renderers) == 0:
		return nil, errors.Validation("reporting service requires at least one renderer")
	case cfg.Storage == nil:
		return nil, errors.Validation("reporting service requires object storage")
	case cfg.ReportBucket == "":
		return nil, errors.Validation("reporting service requires a report bucket")
	case cfg.Logger == nil:
		return nil, errors.Validation("reporting service requires a logger")
	}

	renderers := make(map[report.Format]Renderer, len(cfg.Renderers))
	for _, r := range cfg.Renderers {
		renderers[r.Format()] = r
	}

	return &serviceImpl{
		artifacts:    cfg.Artifacts,
		engine:       cfg.Engine,
		renderers:    renderers,
		storage:      cfg.Storage,
		reportBucket: cfg.ReportBucket,
		genTimeout:   cfg.GenerationTimeout,
		newLock:      cfg.NewLock,
		events:       cfg.Events,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}, nil
}

func (s *serviceImpl) GenerateWeekly(ctx context.Context, actor *auth.Claims, input *GenerateInput) (*report.Artifact, error) {
	return s.generate(ctx, actor, report.KindWeekly, input)
}

func (s *serviceImpl) GenerateDaily(ctx context.Context, actor *auth.Claims, input *GenerateInput) (*report.Artifact, error) {
	return s.generate(ctx, actor, report.KindDaily, input)
}

func (s *serviceImpl) generate(ctx context.Context, actor *auth.Claims, kind report.Kind, input *GenerateInput) (*report.Artifact, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.InvalidParam("input cannot be nil")
	}
	renderer, ok := s.renderers[input.Format]
	if !ok {
		if !input.Format.Valid() {
			return nil, errors.Newf(errors.ErrCodeReportBadFormat, "unsupported report format %q", string(input.Format))
		}
		return nil, errors.Newf(errors.CodeInternal, "no renderer registered for format %s", input.Format)
	}

	if s.genTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.genTimeout)
		defer cancel()
	}

	day := input.Date
	if day.IsZero() {
		day = common.Today()
	}
	period := common.DateRange{From: day, To: day}
	if kind == report.KindWeekly {
		period = WeekOf(day)
	}

	artifact, err := report.NewArtifact(kind, input.Format, period, input.FilterUserID, input.FilterProfileID, actor.UserID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.acquire(ctx, artifact)
	if err != nil {
		return nil, err
	}
	defer unlock()

	start := time.Now()

	var data []byte
	if kind == report.KindWeekly {
		doc, err := s.engine.BuildWeekly(ctx, day, input.FilterUserID, input.FilterProfileID)
		if err != nil {
			return nil, s.fail(ctx, artifact, start, err)
		}
		if data, err = renderer.RenderWeekly(doc); err != nil {
			return nil, s.fail(ctx, artifact, start, err)
		}
	} else {
		doc, err := s.engine.BuildDaily(ctx, day, input.FilterUserID, input.FilterProfileID)
		if err != nil {
			return nil, s.fail(ctx, artifact, start, err)
		}
		if data, err = renderer.RenderDaily(doc); err != nil {
			return nil, s.fail(ctx, artifact, start, err)
		}
	}

	key := objectKey(artifact)
	_, err = s.storage.Upload(ctx, &minio.UploadRequest{
		Bucket:      s.reportBucket,
		ObjectKey:   key,
		Data:        data,
		ContentType: artifact.Format.ContentType(),
		Metadata: map[string]string{
			"kind":         string(kind),
			"period-start": artifact.PeriodStart.String(),
			"period-end":   artifact.PeriodEnd.String(),
		},
	})
	if err != nil {
		return nil, s.fail(ctx, artifact, start,
			errors.Wrap(err, errors.ErrCodeReportGenFailed, "failed to store report document"))
	}

	if err := artifact.Complete(key, int64(len(data))); err != nil {
		return nil, err
	}
	if err := s.artifacts.Create(ctx, artifact); err != nil {
		if delErr := s.storage.Delete(ctx, s.reportBucket, key); delErr != nil {
			s.logger.Warn("Orphaned report object not removed",
				logging.String("object_key", key),
				logging.Err(delErr))
		}
		return nil, err
	}

	prometheus.RecordReportGeneration(s.metrics, string(kind), string(artifact.Format), true, time.Since(start), artifact.SizeBytes)
	s.publish(ctx, actor.UserID, activity.ActionReportGenerated, "report", artifact.ID, map[string]any{
		"kind":   string(kind),
		"format": string(artifact.Format),
		"period": artifact.PeriodStart.String() + " to " + artifact.PeriodEnd.String(),
	})
	s.logger.Info("Report generated",
		logging.String("artifact_id", string(artifact.ID)),
		logging.String("kind", string(kind)),
		logging.String("format", string(artifact.Format)),
		logging.Int64("size_bytes", artifact.SizeBytes),
		logging.Duration("took", time.Since(start)))
	return artifact, nil
}

// fail persists the failed run so it shows in listings, then hands the cause
// back to the caller.
func (s *serviceImpl) fail(ctx context.Context, artifact *report.Artifact, start time.Time, cause error) error {
	reason := cause.Error()
	if len(reason) > maxFailReasonLen {
		reason = reason[:maxFailReasonLen]
	}
	artifact.Fail(reason)

	if err := s.artifacts.Create(ctx, artifact); err != nil {
		s.logger.Warn("Failed report run not recorded",
			logging.String("artifact_id", string(artifact.ID)),
			logging.Err(err))
	}
	prometheus.RecordReportGeneration(s.metrics, string(artifact.Kind), string(artifact.Format), false, time.Since(start), 0)
	s.logger.Error("Report generation failed",
		logging.String("artifact_id", string(artifact.ID)),
		logging.String("kind", string(artifact.Kind)),
		logging.Err(cause))
	return cause
}

func (s *serviceImpl) ListArtifacts(ctx context.Context, actor *auth.Claims, input *ListArtifactsInput) (*ArtifactList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		input = &ListArtifactsInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	artifacts, total, err := s.artifacts.List(ctx, report.ListFilter{
		Kind:   input.Kind,
		Format: input.Format,
		Status: input.Status,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ArtifactList{
		Artifacts:  artifacts,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) GetArtifact(ctx context.Context, actor *auth.Claims, id common.ID) (*report.Artifact, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.InvalidParam("artifact id cannot be empty")
	}
	return s.artifacts.GetByID(ctx, id)
}

func (s *serviceImpl) DownloadArtifact(ctx context.Context, actor *auth.Claims, id common.ID) (*Download, error) {
	a, err := s.GetArtifact(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !a.Downloadable() {
		return nil, errors.New(errors.ErrCodeObjectNotFound, "report has no stored document")
	}

	res, err := s.storage.Download(ctx, s.reportBucket, a.ObjectKey)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeObjectNotFound) {
			s.logger.Warn("Report object missing from storage",
				logging.String("artifact_id", string(a.ID)),
				logging.String("object_key", a.ObjectKey))
			return nil, errors.New(errors.ErrCodeObjectNotFound, "report document is missing from storage")
		}
		return nil, err
	}

	return &Download{
		Artifact:    a,
		Data:        res.Data,
		ContentType: a.Format.ContentType(),
		FileName:    fileName(a),
	}, nil
}

func (s *serviceImpl) DeleteArtifact(ctx context.Context, actor *auth.Claims, id common.ID) error {
	a, err := s.GetArtifact(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.artifacts.Delete(ctx, a.ID); err != nil {
		return err
	}

	if a.ObjectKey != "" {
		if err := s.storage.Delete(ctx, s.reportBucket, a.ObjectKey); err != nil {
			s.logger.Warn("Orphaned report object not removed",
				logging.String("object_key", a.ObjectKey),
				logging.Err(err))
		}
	}

	s.publish(ctx, actor.UserID, activity.ActionReportDeleted, "report", a.ID, map[string]any{
		"kind":   string(a.Kind),
		"format": string(a.Format),
	})
	s.logger.Info("Report artifact deleted",
		logging.String("artifact_id", string(a.ID)))
	return nil
}

// acquire takes the generation lock for the artifact's document, returning
// the release func. Without a factory it is a no-op.
func (s *serviceImpl) acquire(ctx context.Context, a *report.Artifact) (func(), error) {
	if s.newLock == nil {
		return func() {}, nil
	}
	lk := s.newLock(lockName(a))
	if err := lk.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		if err := lk.Unlock(context.Background()); err != nil {
			s.logger.Warn("Report generation lock not released",
				logging.Err(err))
		}
	}, nil
}

// lockName keys the lock on everything that distinguishes one document from
// another, so unrelated runs never serialize.
func lockName(a *report.Artifact) string {
	name := fmt.Sprintf("report:%s:%s:%s", a.Kind, a.PeriodStart, a.Format)
	if a.FilterUserID != "" {
		name += ":u:" + string(a.FilterUserID)
	}
	if a.FilterProfileID != "" {
		name += ":p:" + string(a.FilterProfileID)
	}
	return name
}

func objectKey(a *report.Artifact) string {
	return fmt.Sprintf("reports/%s/%s_%s/%s%s",
		a.Kind, a.PeriodStart, a.PeriodEnd, a.ID, a.Format.Extension())
}

// fileName is the attachment name a download is served under.
func fileName(a *report.Artifact) string {
	if a.Kind == report.KindDaily {
		return fmt.Sprintf("daily_%s%s", a.PeriodStart, a.Format.Extension())
	}
	return fmt.Sprintf("weekly_%s_%s%s", a.PeriodStart, a.PeriodEnd, a.Format.Extension())
}

// publish emits one activity record, best effort.
func (s *serviceImpl) publish(ctx context.Context, actorID common.ID, action, entityType string, entityID common.ID, detail map[string]any) {
	if s.events == nil {
		return
	}
	rec, err := activity.New(actorID, action, entityType, entityID, detail, time.Time{})
	if err != nil {
		s.logger.Warn("Activity event not built",
			logging.String("action", action),
			logging.Err(err))
		return
	}
	s.events.Publish(ctx, rec)
}

func requireActor(actor *auth.Claims) error {
	if actor == nil || actor.UserID == "" {
		return auth.ErrNoAuthContext
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
