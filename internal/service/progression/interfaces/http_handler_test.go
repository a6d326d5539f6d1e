package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace/noop"

	"inkverse/internal/pkg/httpx"
	"inkverse/internal/service/progression/application"
	"inkverse/internal/service/progression/domain"
	"inkverse/internal/service/progression/infrastructure/adapter"
)

type memoryProfiles struct {
	profiles map[string]domain.UserProfile
}

func (m *memoryProfiles) Load(_ context.Context, userID string) (domain.UserProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return domain.UserProfile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (m *memoryProfiles) Create(_ context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	p.Version = 1
	m.profiles[p.UserID] = p
	return p, nil
}

func (m *memoryProfiles) Save(_ context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	if m.profiles[p.UserID].Version != p.Version {
		return domain.UserProfile{}, domain.ErrProfileChanged
	}
	p.Version++
	m.profiles[p.UserID] = p
	return p, nil
}

type memoryChapters struct {
	profiles *memoryProfiles
	unlocked domain.UnlockedSet
}

func (m *memoryChapters) ListChapters(_ context.Context, comicID string) ([]domain.Chapter, error) {
	if comicID != "comic-1" {
		return nil, nil
	}
	return []domain.Chapter{
		{ID: "c1", ComicID: "comic-1", Number: 1},
		{ID: "c2", ComicID: "comic-1", Number: 2, Price: 30},
	}, nil
}

func (m *memoryChapters) GetUnlockedSet(context.Context, string, string) (domain.UnlockedSet, error) {
	return m.unlocked, nil
}

func (m *memoryChapters) HasFullPurchase(context.Context, string, string) (bool, error) {
	return false, nil
}

func (m *memoryChapters) CommitUnlock(ctx context.Context, p domain.UserProfile, c domain.Chapter) (domain.UserProfile, error) {
	saved, err := m.profiles.Save(ctx, p)
	if err != nil {
		return saved, err
	}
	m.unlocked[c.ID] = struct{}{}
	return saved, nil
}

func newTestRouter() http.Handler {
	profiles := &memoryProfiles{profiles: map[string]domain.UserProfile{}}
	svc := application.NewProgressionApplicationService(application.Dependencies{
		Profiles: profiles,
		Chapters: &memoryChapters{profiles: profiles, unlocked: domain.NewUnlockedSet()},
		Locker:   adapter.NewLocalUserLocker(),
		Tracer:   noop.NewTracerProvider().Tracer("test"),
		Now:      func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	})
	r := chi.NewRouter()
	NewProgressionHandler(svc).RegisterRoutes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestProgressionRoutes(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPost, "/profiles/u-1/reading", `{"amount":5000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reading status = %d body = %s", rec.Code, rec.Body)
	}
	var grant application.GrantExpResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &grant); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if grant.Profile.Level != 3 || grant.LevelsGained != 2 {
		t.Fatalf("unexpected grant: %+v", grant)
	}

	rec = do(t, h, http.MethodPost, "/profiles/u-1/daily-reward/claim", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d body = %s", rec.Code, rec.Body)
	}
	rec = do(t, h, http.MethodPost, "/profiles/u-1/daily-reward/claim", "")
	if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "ALREADY_CLAIMED_TODAY") {
		t.Fatalf("second claim status = %d body = %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/profiles/u-1", "")
	var view application.ProfileView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || view.CoinBalance != 10 || view.ConsecutiveLoginDays != 1 {
		t.Fatalf("profile status = %d view = %+v", rec.Code, view)
	}
}

func TestUnlockRoutes(t *testing.T) {
	h := newTestRouter()

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "paid before free", path: "/profiles/u-1/comics/comic-1/chapters/c2/unlock", status: http.StatusForbidden, code: "OUT_OF_SEQUENCE"},
		{name: "free first", path: "/profiles/u-1/comics/comic-1/chapters/c1/unlock", status: http.StatusOK},
		{name: "no coins", path: "/profiles/u-1/comics/comic-1/chapters/c2/unlock", status: http.StatusForbidden, code: "INSUFFICIENT_BALANCE"},
		{name: "unknown comic", path: "/profiles/u-1/comics/comic-9/chapters/c1/unlock", status: http.StatusNotFound, code: "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body)
			}
			if tt.code == "" {
				return
			}
			var body httpx.ErrorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Fatalf("code = %s, want %s", body.Code, tt.code)
			}
		})
	}
}

func TestSetLevelSystemRoute(t *testing.T) {
	h := newTestRouter()

	rec := do(t, h, http.MethodPut, "/profiles/u-1/level-system", `{"levelSystem":"knight"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"levelTitle":"Squire 1"`) {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodPut, "/profiles/u-1/level-system", `{"levelSystem":"knight","extra":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown fields should be rejected, got %d", rec.Code)
	}
}
