package backup

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
)

type memRepo struct {
	mu    sync.RWMutex
	items map[string]*entity.ProgressRecord
}

func newMemRepo() *memRepo {
	return &memRepo{items: make(map[string]*entity.ProgressRecord)}
}

func (r *memRepo) Find(_ context.Context, userID string) (*entity.ProgressRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[userID]
	if !ok {
		return nil, entity.ErrProgressNotFound
	}
	return item.Clone(), nil
}

func (r *memRepo) Save(_ context.Context, record *entity.ProgressRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[record.UserID] = record.Clone()
	return nil
}

func (r *memRepo) List(_ context.Context, query *repository.ListProgressQuery) ([]entity.ProgressRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	start := int(query.Offset())
	if start > len(ids) {
		start = len(ids)
	}
	end := start + int(query.PageSize)
	if end > len(ids) {
		end = len(ids)
	}
	out := make([]entity.ProgressRecord, 0, end-start)
	for _, id := range ids[start:end] {
		out = append(out, *r.items[id].Clone())
	}
	return out, int64(len(ids)), nil
}

func (r *memRepo) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, userID)
	return nil
}

type countingReporter struct {
	started  map[string]int
	progress map[string]int
	finished []string
}

func newCountingReporter() *countingReporter {
	return &countingReporter{started: map[string]int{}, progress: map[string]int{}}
}

func (c *countingReporter) Start(section string, total int) { c.started[section] = total }
func (c *countingReporter) Increment(section string, delta int) {
	c.progress[section] += delta
}
func (c *countingReporter) Finish(section string) { c.finished = append(c.finished, section) }

func seed(t *testing.T, repo *memRepo, n int) []*entity.ProgressRecord {
	t.Helper()
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var out []*entity.ProgressRecord
	for i := 0; i < n; i++ {
		rec := entity.NewProgressRecord(string(rune('a'+i)) + "-learner")
		rec.XP = 10 * (i + 1)
		rec.UpsertCompletion(entity.CompletionRecord{StageID: 1, LessonID: 1, CompletedAt: ts, Score: 90, XPEarned: 10})
		rec.AddBadge("first_quiz")
		if _, err := rec.AddLoginDate("2024-03-01"); err != nil {
			t.Fatalf("AddLoginDate: %v", err)
		}
		rec.StreakDays = 1
		rec.UpdatedAt = ts
		if err := repo.Save(context.Background(), rec); err != nil {
			t.Fatalf("seed: %v", err)
		}
		out = append(out, rec)
	}
	return out
}

func TestServiceExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newMemRepo()
	want := seed(t, src, 5)

	exporter, err := NewService(src, WithBatchSize(2))
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	reporter := newCountingReporter()
	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf, WithProgressReporter(reporter)); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if reporter.started[SectionProgress] != 5 || reporter.progress[SectionProgress] != 5 {
		t.Fatalf("unexpected reporter state: %+v", reporter)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected meta + 5 records, got %d lines", len(lines))
	}
	var meta map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &meta); err != nil {
		t.Fatalf("decode meta: %v", err)
	}
	if meta["type"] != "meta" {
		t.Fatalf("first line must be meta, got %v", meta["type"])
	}

	dst := newMemRepo()
	importer, err := NewService(dst)
	if err != nil {
		t.Fatalf("new importer: %v", err)
	}
	stats, err := importer.Import(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if stats.Imported != 5 || stats.Skipped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	for _, rec := range want {
		got, err := dst.Find(ctx, rec.UserID)
		if err != nil {
			t.Fatalf("find %s: %v", rec.UserID, err)
		}
		if !reflect.DeepEqual(rec, got) {
			t.Fatalf("record mismatch after import:\nwant %#v\ngot  %#v", rec, got)
		}
	}
}

func TestServiceExportUsersFilter(t *testing.T) {
	ctx := context.Background()
	src := newMemRepo()
	seed(t, src, 3)

	exporter, err := NewService(src)
	if err != nil {
		t.Fatalf("new exporter: %v", err)
	}
	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf, WithUsers([]string{"b-learner", " ", "missing"})); err != nil {
		t.Fatalf("filtered export failed: %v", err)
	}

	scanner := bufio.NewScanner(&buf)
	var types []string
	for scanner.Scan() {
		var rec struct {
			Type    string `json:"type"`
			Payload struct {
				UserID string `json:"user_id"`
			} `json:"payload"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode: %v", err)
		}
		types = append(types, rec.Type+":"+rec.Payload.UserID)
	}
	want := []string{"meta:", "progress:b-learner"}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
}

func TestServiceImportSkipExisting(t *testing.T) {
	ctx := context.Background()
	src := newMemRepo()
	seed(t, src, 2)

	exporter, _ := NewService(src)
	var buf bytes.Buffer
	if err := exporter.Export(ctx, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := newMemRepo()
	existing := entity.NewProgressRecord("a-learner")
	existing.XP = 999
	if err := dst.Save(ctx, existing); err != nil {
		t.Fatalf("save: %v", err)
	}

	importer, _ := NewService(dst)
	stats, err := importer.Import(ctx, bytes.NewReader(buf.Bytes()), WithSkipExisting(true))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if stats.Imported != 1 || stats.Skipped != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	got, _ := dst.Find(ctx, "a-learner")
	if got.XP != 999 {
		t.Fatalf("existing record overwritten: %+v", got)
	}
}

func TestServiceImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(newMemRepo())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cases := map[string]string{
		"missing meta":    `{"type":"progress","payload":{"user_id":"x"}}`,
		"bad version":     `{"type":"meta","version":99}`,
		"blank user":      "{\"type\":\"meta\",\"version\":1}\n{\"type\":\"progress\",\"payload\":{\"user_id\":\" \"}}",
		"negative xp":     "{\"type\":\"meta\",\"version\":1}\n{\"type\":\"progress\",\"payload\":{\"user_id\":\"x\",\"xp\":-4}}",
		"malformed json":  "{\"type\":\"meta\",\"version\":1}\n{not json}",
		"missing payload": "{\"type\":\"meta\",\"version\":1}\n{\"type\":\"progress\"}",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Import(ctx, strings.NewReader(input)); err == nil {
				t.Fatal("expected import error")
			}
		})
	}
}

func TestServiceImportNormalisesRecords(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	input := "{\"type\":\"meta\",\"version\":1}\n" +
		`{"type":"progress","payload":{"user_id":" nora ","xp":70,"current_stage_id":1,` +
		`"completed_lessons":[` +
		`{"stage_id":1,"lesson_id":1,"score":60,"xp_earned":20},` +
		`{"stage_id":1,"lesson_id":2,"score":80,"xp_earned":25},` +
		`{"stage_id":1,"lesson_id":1,"score":100,"xp_earned":20}],` +
		`"earned_badges":["first_quiz","first_quiz"],` +
		`"login_dates":["2024-05-08","2024-05-10","2024-05-09","2024-05-10"],` +
		`"streak_days":42}}`

	stats, err := svc.Import(ctx, strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Imported != 1 {
		t.Fatalf("expected 1 imported record, got %+v", stats)
	}

	got, err := repo.Find(ctx, "nora")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got.CompletedLessons) != 2 {
		t.Fatalf("expected duplicate completions collapsed, got %+v", got.CompletedLessons)
	}
	if c, _ := got.Completion(1, 1); c.Score != 100 {
		t.Fatalf("expected the later completion to win, got %+v", c)
	}
	if !reflect.DeepEqual(got.EarnedBadges, []string{"first_quiz"}) {
		t.Fatalf("badges not deduplicated: %v", got.EarnedBadges)
	}
	if len(got.LoginDates) != 3 {
		t.Fatalf("login dates not deduplicated: %v", got.LoginDates)
	}
	if got.StreakDays != 3 {
		t.Fatalf("expected streak recomputed to 3, got %d", got.StreakDays)
	}
}

func TestServiceImportRejectsInvalidAggregate(t *testing.T) {
	ctx := context.Background()
	svc, err := NewService(newMemRepo())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cases := map[string]string{
		"bad login date": `{"user_id":"x","login_dates":["05/10/2024"]}`,
		"score too high": `{"user_id":"x","completed_lessons":[{"stage_id":1,"lesson_id":1,"score":101}]}`,
		"zero lesson id": `{"user_id":"x","completed_lessons":[{"stage_id":1,"lesson_id":0,"score":50}]}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			input := "{\"type\":\"meta\",\"version\":1}\n{\"type\":\"progress\",\"payload\":" + payload + "}"
			if _, err := svc.Import(ctx, strings.NewReader(input)); err == nil {
				t.Fatal("expected import error")
			}
		})
	}
}
