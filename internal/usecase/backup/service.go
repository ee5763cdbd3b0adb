package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
	"github.com/eslsoft/finquest/internal/usecase"
)

const (
	defaultBatchSize = 256
	formatVersion    = 1

	// SectionProgress names the progress records section of a backup.
	SectionProgress = "progress"
)

// ProgressReporter receives callbacks while a backup is written or restored.
type ProgressReporter interface {
	Start(section string, total int)
	Increment(section string, delta int)
	Finish(section string)
}

type noopProgress struct{}

func (noopProgress) Start(string, int)     {}
func (noopProgress) Increment(string, int) {}
func (noopProgress) Finish(string)         {}

// Service streams progress records to and from NDJSON.
type Service struct {
	repo      repository.ProgressRepository
	batchSize int32
	clock     func() time.Time
}

type Option func(*Service)

func WithBatchSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.batchSize = int32(size)
		}
	}
}

// NewService builds a backup service over a progress repository.
func NewService(repo repository.ProgressRepository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("backup: progress repository is required")
	}
	svc := &Service{
		repo:      repo,
		batchSize: defaultBatchSize,
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	users    []string
	reporter ProgressReporter
}

// WithUsers restricts export to the given user ids.
func WithUsers(users []string) ExportOption {
	return func(cfg *exportConfig) {
		cfg.users = lo.Compact(lo.Map(users, func(u string, _ int) string { return strings.TrimSpace(u) }))
	}
}

// WithProgressReporter registers a reporter that receives progress callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

type ImportOption func(*importConfig)

type importConfig struct {
	skipExisting bool
	reporter     ProgressReporter
}

// WithSkipExisting keeps records that already exist in the target store.
func WithSkipExisting(skip bool) ImportOption {
	return func(cfg *importConfig) {
		cfg.skipExisting = skip
	}
}

// WithImportReporter registers a reporter that receives progress callbacks during import.
func WithImportReporter(reporter ProgressReporter) ImportOption {
	return func(cfg *importConfig) {
		cfg.reporter = reporter
	}
}

type record struct {
	Type       string                 `json:"type"`
	Version    int                    `json:"version,omitempty"`
	ExportedAt *time.Time             `json:"exported_at,omitempty"`
	Counts     map[string]int         `json:"counts,omitempty"`
	Payload    *entity.ProgressRecord `json:"payload,omitempty"`
}

type rawRecord struct {
	Type    string          `json:"type"`
	Version int             `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// ImportStats summarises an import.
type ImportStats struct {
	Imported int
	Skipped  int
}

// Export writes a meta line followed by one line per progress record.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	records, err := s.collect(ctx, cfg.users)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(w)
	defer writer.Flush()

	now := s.clock().UTC()
	meta := record{
		Type:       "meta",
		Version:    formatVersion,
		ExportedAt: &now,
		Counts:     map[string]int{SectionProgress: len(records)},
	}
	if err := writeRecord(writer, meta); err != nil {
		return err
	}

	reporter.Start(SectionProgress, len(records))
	for i := range records {
		if err := writeRecord(writer, record{Type: SectionProgress, Payload: &records[i]}); err != nil {
			return err
		}
		reporter.Increment(SectionProgress, 1)
	}
	reporter.Finish(SectionProgress)
	return writer.Flush()
}

func (s *Service) collect(ctx context.Context, users []string) ([]entity.ProgressRecord, error) {
	if len(users) > 0 {
		out := make([]entity.ProgressRecord, 0, len(users))
		for _, id := range lo.Uniq(users) {
			rec, err := s.repo.Find(ctx, id)
			if errors.Is(err, entity.ErrProgressNotFound) {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("load progress %s: %w", id, err)
			}
			out = append(out, *rec)
		}
		return out, nil
	}

	var out []entity.ProgressRecord
	page := repository.Pagination{PageNo: 1, PageSize: s.batchSize}
	for {
		batch, total, err := s.repo.List(ctx, &repository.ListProgressQuery{Pagination: page})
		if err != nil {
			return nil, fmt.Errorf("list progress page %d: %w", page.PageNo, err)
		}
		out = append(out, batch...)
		if len(batch) < int(page.PageSize) || int64(len(out)) >= total {
			break
		}
		page.PageNo++
	}
	return out, nil
}

// Import restores progress records. The meta record must carry a supported
// version; unknown record types are skipped.
func (s *Service) Import(ctx context.Context, r io.Reader, opts ...ImportOption) (*ImportStats, error) {
	cfg := importConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	var (
		metaSeen bool
		stats    ImportStats
		pending  []*entity.ProgressRecord
	)

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read backup: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var rec rawRecord
			if err := json.Unmarshal(line, &rec); err != nil {
				return nil, fmt.Errorf("decode record: %w", err)
			}
			switch rec.Type {
			case "meta":
				if rec.Version != formatVersion {
					return nil, fmt.Errorf("backup: unsupported format version %d", rec.Version)
				}
				metaSeen = true
			case SectionProgress:
				progress, err := decodeProgress(rec.Payload)
				if err != nil {
					return nil, err
				}
				pending = append(pending, progress)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}

	if !metaSeen {
		return nil, errors.New("backup: missing meta record")
	}

	reporter.Start(SectionProgress, len(pending))
	for _, progress := range pending {
		if cfg.skipExisting {
			_, err := s.repo.Find(ctx, progress.UserID)
			if err == nil {
				stats.Skipped++
				reporter.Increment(SectionProgress, 1)
				continue
			}
			if !errors.Is(err, entity.ErrProgressNotFound) {
				return &stats, fmt.Errorf("check progress %s: %w", progress.UserID, err)
			}
		}
		if err := s.repo.Save(ctx, progress); err != nil {
			return &stats, fmt.Errorf("save progress %s: %w", progress.UserID, err)
		}
		stats.Imported++
		reporter.Increment(SectionProgress, 1)
	}
	reporter.Finish(SectionProgress)
	return &stats, nil
}

func decodeProgress(payload json.RawMessage) (*entity.ProgressRecord, error) {
	if len(payload) == 0 {
		return nil, errors.New("backup: missing payload for progress record")
	}
	var raw entity.ProgressRecord
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode progress payload: %w", err)
	}
	id, err := entity.NormalizeUserID(raw.UserID)
	if err != nil {
		return nil, fmt.Errorf("backup: progress record: %w", err)
	}
	if raw.XP < 0 {
		return nil, fmt.Errorf("backup: progress %s has negative xp", id)
	}

	// Rebuild through the aggregate helpers; a later duplicate completion wins.
	progress := entity.NewProgressRecord(id)
	progress.XP = raw.XP
	progress.UpdatedAt = raw.UpdatedAt
	if raw.CurrentStageID > 0 {
		progress.CurrentStageID = raw.CurrentStageID
	}
	for _, c := range raw.CompletedLessons {
		if c.StageID <= 0 || c.LessonID <= 0 {
			return nil, fmt.Errorf("backup: progress %s has completion for stage %d lesson %d", id, c.StageID, c.LessonID)
		}
		if c.Score < 0 || c.Score > 100 {
			return nil, fmt.Errorf("backup: progress %s: %w: %d", id, entity.ErrInvalidScore, c.Score)
		}
		progress.UpsertCompletion(c)
	}
	for _, badge := range raw.EarnedBadges {
		progress.AddBadge(strings.TrimSpace(badge))
	}
	for _, day := range raw.LoginDates {
		if _, err := progress.AddLoginDate(day); err != nil {
			return nil, fmt.Errorf("backup: progress %s: %w", id, err)
		}
	}
	// The streak as of the most recent login is what the engine stored then.
	if len(progress.LoginDates) > 0 {
		latest := slices.Max(progress.LoginDates)
		progress.StreakDays = usecase.CalculateStreak(progress.LoginDates, latest)
	}
	return progress, nil
}

func writeRecord(w io.Writer, rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}
