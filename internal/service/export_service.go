package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/obs-timetable-api/internal/models"
	"github.com/noah-isme/obs-timetable-api/internal/planner"
	"github.com/noah-isme/obs-timetable-api/pkg/export"
	"github.com/noah-isme/obs-timetable-api/pkg/storage"
)

type timetableFinder interface {
	Find(ctx context.Context, id string) (*models.Timetable, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (io.ReadCloser, int64, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders a timetable's calendar and persists the file.
type ExportService struct {
	timetables timetableFinder
	storage    fileStorage
	renderers  map[models.ExportFormat]datasetRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
	now        func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers fall back to
// the CSV and PDF exporters.
func NewExportService(timetables timetableFinder, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv, pdf datasetRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		timetables: timetables,
		storage:    files,
		renderers: map[models.ExportFormat]datasetRenderer{
			models.ExportFormatCSV: csv,
			models.ExportFormatPDF: pdf,
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Generate renders the job's timetable and stores the file behind a signed token.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Format)
	}
	timetable, err := s.timetables.Find(ctx, job.TimetableID)
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(CalendarDataset(*timetable))
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(timetable, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("calendar export rendered",
		zap.String("job_id", job.ID),
		zap.String("path", relPath),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ContentType returns the MIME type for a format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if renderer, ok := s.renderers[format]; ok {
		return renderer.ContentType()
	}
	return "application/octet-stream"
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file and its size.
func (s *ExportService) Open(relPath string) (io.ReadCloser, int64, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(t *models.Timetable, ext string) string {
	label := t.Name
	if strings.TrimSpace(label) == "" {
		label = t.StartDate.Format(models.DateLayout)
	}
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("timetable_%s_%s.%s", sanitizeFilename(label), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

var calendarHeaders = []string{
	"Proposal", "Start (UTC)", "End (UTC)", "Duration (h)", "Owner Email",
	"Band", "Night Obs", "Avoid Sunrise/Sunset", "Minimum Antennas",
}

// CalendarDataset lays out the projected events of a timetable as rows.
func CalendarDataset(t models.Timetable) export.Dataset {
	events := planner.Project(t)
	scheduled := make([]models.Proposal, 0, len(events))
	for _, p := range t.Proposals {
		if p.Scheduled() {
			scheduled = append(scheduled, p)
		}
	}

	rows := make([][]string, 0, len(events))
	for i, event := range events {
		p := scheduled[i]
		rows = append(rows, []string{
			event.Title,
			event.Start.UTC().Format(planner.RecordTimeLayout),
			event.End.UTC().Format(planner.RecordTimeLayout),
			fmt.Sprintf("%.2f", p.Duration.Hours()),
			p.OwnerEmail,
			p.InstrumentBand,
			yesNoFlag(p.NightObs),
			yesNoFlag(p.AvoidSunriseSunset),
			fmt.Sprintf("%d", p.MinimumAntennas),
		})
	}

	title := strings.TrimSpace(t.Name)
	if title == "" {
		title = "Observation timetable"
	}
	return export.Dataset{
		Title:   fmt.Sprintf("%s (%s to %s)", title, t.StartDate.Format(models.DateLayout), t.EndDate.Format(models.DateLayout)),
		Headers: calendarHeaders,
		Rows:    rows,
	}
}

func yesNoFlag(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
