package controller

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"

	"timetable_backend/internals/databases/dbtest"
	catalogmodel "timetable_backend/internals/features/timetable/catalog/model"
	conflictmodel "timetable_backend/internals/features/timetable/conflicts/model"
	conflictsvc "timetable_backend/internals/features/timetable/conflicts/service"
	entrymodel "timetable_backend/internals/features/timetable/entries/model"
	"timetable_backend/internals/features/timetable/jobs/model"
	"timetable_backend/internals/features/timetable/jobs/service"
	notifsvc "timetable_backend/internals/features/timetable/notifications/service"
)

type recordingQueue struct {
	err  error
	sent []service.JobMessage
}

func (q *recordingQueue) Publish(_ context.Context, msg service.JobMessage) error {
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, msg)
	return nil
}

type noSolutionGenerator struct{}

func (noSolutionGenerator) Generate(_ context.Context, classID uint, rec *conflictsvc.Recorder) ([]entrymodel.TimetableEntryModel, error) {
	rec.Record(conflictmodel.ConflictNoSolution, "nothing fits", map[string]interface{}{"class_id": classID})
	return nil, errors.New("no feasible schedule")
}

type jobFixture struct {
	app   *fiber.App
	queue *recordingQueue
	p     *service.Pipeline
}

func newJobFixture(t *testing.T) *jobFixture {
	t.Helper()
	db := dbtest.Open(t, &catalogmodel.SchoolClassModel{}, &model.TimetableJobModel{}, &conflictmodel.ConflictReportModel{})
	for _, name := range []string{"9A", "9B"} {
		if err := db.Create(&catalogmodel.SchoolClassModel{SchoolClassName: name}).Error; err != nil {
			t.Fatalf("seed class: %v", err)
		}
	}
	q := &recordingQueue{}
	store := service.NewGormJobStore(db)
	p := service.NewPipeline(store, q, noSolutionGenerator{}, notifsvc.LogPublisher{})
	ctl := NewJobController(p, store)

	app := fiber.New(fiber.Config{JSONEncoder: sonic.Marshal, JSONDecoder: sonic.Unmarshal})
	app.Post("/timetables/generate", ctl.Generate)
	app.Get("/timetables/jobs", ctl.List)
	app.Get("/timetables/jobs/:id", ctl.GetByID)
	app.Get("/timetables/jobs/:id/conflicts", ctl.Conflicts)
	return &jobFixture{app: app, queue: q, p: p}
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	if len(raw) > 0 {
		if err := sonic.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestGenerateQueuesOneJobPerClass(t *testing.T) {
	f := newJobFixture(t)

	status, body := call(t, f.app, fiber.MethodPost, "/timetables/generate", `{"class_id":1,"class_ids":[2,1]}`)
	if status != fiber.StatusAccepted {
		t.Fatalf("status = %d (%v)", status, body)
	}
	data, _ := body["data"].(map[string]any)
	ids, _ := data["job_ids"].([]any)
	if len(ids) != 2 || len(f.queue.sent) != 2 {
		t.Fatalf("job_ids = %v, sent = %+v", ids, f.queue.sent)
	}
	if f.queue.sent[0].ClassID != 1 || f.queue.sent[1].ClassID != 2 {
		t.Fatalf("unexpected publish order %+v", f.queue.sent)
	}

	status, body = call(t, f.app, fiber.MethodGet, "/timetables/jobs/1", "")
	if status != fiber.StatusOK {
		t.Fatalf("get job status = %d", status)
	}
	job, _ := body["data"].(map[string]any)
	if job["timetable_job_status"] != model.JobPending {
		t.Fatalf("job = %v", job)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		body string
		want int
	}{
		{"empty", `{}`, fiber.StatusBadRequest},
		{"zero id in list", `{"class_ids":[0]}`, fiber.StatusUnprocessableEntity},
		{"unknown class", `{"class_id":77}`, fiber.StatusNotFound},
		{"not json", `class=1`, fiber.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newJobFixture(t)
			status, body := call(t, f.app, fiber.MethodPost, "/timetables/generate", tc.body)
			if status != tc.want {
				t.Fatalf("status = %d, want %d (%v)", status, tc.want, body)
			}
			if len(f.queue.sent) != 0 {
				t.Fatalf("published on rejected request: %+v", f.queue.sent)
			}
		})
	}
}

func TestGenerateWithoutBrokerIsUnavailable(t *testing.T) {
	f := newJobFixture(t)
	f.queue.err = service.ErrQueueUnavailable

	status, body := call(t, f.app, fiber.MethodPost, "/timetables/generate", `{"class_id":1}`)
	if status != fiber.StatusServiceUnavailable || body["error_code"] != "QUEUE_UNAVAILABLE" {
		t.Fatalf("status = %d body = %v", status, body)
	}
	status, body = call(t, f.app, fiber.MethodGet, "/timetables/jobs", "")
	if status != fiber.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if rows, _ := body["data"].([]any); len(rows) != 0 {
		t.Fatalf("failed enqueue left rows: %v", rows)
	}
}

func TestJobConflictsAfterFailedRun(t *testing.T) {
	f := newJobFixture(t)
	if status, _ := call(t, f.app, fiber.MethodPost, "/timetables/generate", `{"class_id":2}`); status != fiber.StatusAccepted {
		t.Fatalf("enqueue status = %d", status)
	}
	if err := f.p.Process(context.Background(), f.queue.sent[0]); err != nil {
		t.Fatalf("Process: %v", err)
	}

	status, body := call(t, f.app, fiber.MethodGet, "/timetables/jobs/1/conflicts", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	rows, _ := body["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("conflicts = %v", rows)
	}
	first, _ := rows[0].(map[string]any)
	if first["conflict_report_type"] != conflictmodel.ConflictNoSolution {
		t.Fatalf("conflict = %v", first)
	}

	if status, _ := call(t, f.app, fiber.MethodGet, "/timetables/jobs/9/conflicts", ""); status != fiber.StatusNotFound {
		t.Fatalf("unknown job conflicts status = %d", status)
	}
}

func TestListJobsFiltersAndPaginates(t *testing.T) {
	f := newJobFixture(t)
	for i := 0; i < 3; i++ {
		if status, _ := call(t, f.app, fiber.MethodPost, "/timetables/generate", `{"class_ids":[1,2]}`); status != fiber.StatusAccepted {
			t.Fatalf("enqueue status = %d", status)
		}
	}

	status, body := call(t, f.app, fiber.MethodGet, "/timetables/jobs?class_id=2&per_page=2&page=1", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	rows, _ := body["data"].([]any)
	pg, _ := body["pagination"].(map[string]any)
	if len(rows) != 2 || pg["total"] != float64(3) || pg["has_next"] != true {
		t.Fatalf("rows = %v pagination = %v", rows, pg)
	}
	for _, r := range rows {
		if r.(map[string]any)["timetable_job_class_id"] != float64(2) {
			t.Fatalf("class filter ignored: %v", r)
		}
	}

	_, body = call(t, f.app, fiber.MethodGet, "/timetables/jobs?status=failed", "")
	if rows, _ := body["data"].([]any); len(rows) != 0 {
		t.Fatalf("status filter ignored: %v", rows)
	}

	if status, _ := call(t, f.app, fiber.MethodGet, "/timetables/jobs?class_id=x", ""); status != fiber.StatusBadRequest {
		t.Fatalf("bad class_id status = %d", status)
	}
}
