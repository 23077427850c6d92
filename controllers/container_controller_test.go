package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/lqSky7/pwncore/config"
	"github.com/lqSky7/pwncore/controllers"
	"github.com/lqSky7/pwncore/database"
	"github.com/lqSky7/pwncore/models"
	"github.com/lqSky7/pwncore/routes"
	"github.com/lqSky7/pwncore/services"
	"github.com/lqSky7/pwncore/utils"
)

const testImageConfig = `{"PortBindings":{"22/tcp":[{}]}}`

// stubDocker fakes the container engine for handler tests.
type stubDocker struct {
	mu      sync.Mutex
	nextID  int
	running map[string]services.ContainerSpec
}

func (f *stubDocker) CreateAndStart(_ context.Context, spec services.ContainerSpec) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running == nil {
		f.running = make(map[string]services.ContainerSpec)
	}
	f.nextID++
	handle := fmt.Sprintf("cont-%d", f.nextID)
	f.running[handle] = spec
	return handle, nil
}

func (f *stubDocker) Kill(_ context.Context, _ string) error { return nil }

func (f *stubDocker) Delete(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.running, handle)
	return nil
}

func (f *stubDocker) Inspect(_ context.Context, _ string) (string, error) {
	return "running", nil
}

func testConfig() *config.Config {
	return &config.Config{
		Development:          true,
		DBDSN:                "unused",
		Flag:                 "C0D",
		MaxContainersPerTeam: 3,
		MaxMembersPerTeam:    3,
		PortLow:              30000,
		PortHigh:             30010,
		DockerTimeout:        time.Second,
		ContainerTTL:         time.Hour,
		SweepInterval:        time.Minute,
		JWTSecret:            "test-secret",
		JWTValidDuration:     time.Hour,
		HintPenalty:          50,
	}
}

// setupEnv wires an in-memory database, a stub container engine and the
// real router, and returns a bearer token for a seeded one-member team.
func setupEnv(t *testing.T) (*gin.Engine, string, *models.Team) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Team{}, &models.Problem{},
		&models.Hint{}, &models.ViewedHint{}, &models.SolvedProblem{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	database.DB = db

	cfg := testConfig()
	ports, err := services.NewPortAllocator(cfg.PortLow, cfg.PortHigh)
	if err != nil {
		t.Fatalf("port allocator: %v", err)
	}
	engine := services.NewContainerService(
		services.EngineConfig{
			MaxContainersPerTeam: cfg.MaxContainersPerTeam,
			DockerTimeout:        cfg.DockerTimeout,
			ContainerTTL:         cfg.ContainerTTL,
			SweepInterval:        cfg.SweepInterval,
		},
		services.NewRegistry(),
		ports,
		services.NewFlagGenerator(cfg.Flag, services.NewMemoryFlagHistory()),
		&stubDocker{},
		&services.GormProblemProvider{DB: db},
	)
	controllers.Setup(cfg, engine)

	team := models.Team{TeamName: "CID Squad", InvitationCode: "CIDSQUAD01", Coins: 100}
	if err := db.Create(&team).Error; err != nil {
		t.Fatalf("seed team: %v", err)
	}
	user := models.User{Username: "abc", Email: "abc@xyz.org", Password: "password123", TeamID: &team.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	for i := 1; i <= 4; i++ {
		problem := models.Problem{
			Name:        fmt.Sprintf("problem-%d", i),
			Description: "desc",
			Author:      "author",
			Points:      300,
			ImageName:   "key:latest",
			ImageConfig: testImageConfig,
			Visible:     true,
		}
		if err := db.Create(&problem).Error; err != nil {
			t.Fatalf("seed problem: %v", err)
		}
	}

	token, err := utils.GenerateToken([]byte(cfg.JWTSecret), cfg.JWTValidDuration, user.ID, user.TeamID)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	return routes.SetupRouter(cfg), token, &team
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func msgCode(body map[string]any) utils.MsgCode {
	code, _ := body["msg_code"].(float64)
	return utils.MsgCode(code)
}

func TestStartContainerRoute(t *testing.T) {
	r, token, _ := setupEnv(t)

	w, body := doRequest(t, r, http.MethodPost, "/api/ctf/1/start", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if msgCode(body) != utils.MsgContainerStart {
		t.Fatalf("expected container_start, got %v", body)
	}
	if port, ok := body["port"].(float64); !ok || int(port) != 30000 {
		t.Fatalf("expected port 30000, got %v", body["port"])
	}
	if _, ok := body["flag"].(string); !ok {
		t.Fatalf("development mode should expose the flag, got %v", body)
	}

	// Second start for the same pair conflicts.
	w, body = doRequest(t, r, http.MethodPost, "/api/ctf/1/start", token, nil)
	if w.Code != http.StatusConflict || msgCode(body) != utils.MsgContainerRunning {
		t.Fatalf("expected container_already_running, got %d %v", w.Code, body)
	}
}

func TestStartContainerRouteUnknownProblem(t *testing.T) {
	r, token, _ := setupEnv(t)

	w, body := doRequest(t, r, http.MethodPost, "/api/ctf/99/start", token, nil)
	if w.Code != http.StatusNotFound || msgCode(body) != utils.MsgCTFNotFound {
		t.Fatalf("expected ctf_not_found, got %d %v", w.Code, body)
	}
}

func TestStartContainerRouteRequiresAuth(t *testing.T) {
	r, _, _ := setupEnv(t)

	w, _ := doRequest(t, r, http.MethodPost, "/api/ctf/1/start", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestContainerLimitRoute(t *testing.T) {
	r, token, _ := setupEnv(t)

	for i := 1; i <= 3; i++ {
		w, _ := doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/ctf/%d/start", i), token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("start %d: expected 200, got %d", i, w.Code)
		}
	}

	w, body := doRequest(t, r, http.MethodPost, "/api/ctf/4/start", token, nil)
	if w.Code != http.StatusConflict || msgCode(body) != utils.MsgContainerLimit {
		t.Fatalf("expected container_limit_reached, got %d %v", w.Code, body)
	}
}

func TestStopContainerRoute(t *testing.T) {
	r, token, _ := setupEnv(t)

	doRequest(t, r, http.MethodPost, "/api/ctf/1/start", token, nil)

	w, body := doRequest(t, r, http.MethodPost, "/api/ctf/1/stop", token, nil)
	if w.Code != http.StatusOK || msgCode(body) != utils.MsgContainerStop {
		t.Fatalf("expected container_stop, got %d %v", w.Code, body)
	}

	w, body = doRequest(t, r, http.MethodPost, "/api/ctf/1/stop", token, nil)
	if w.Code != http.StatusNotFound || msgCode(body) != utils.MsgContainerNotFound {
		t.Fatalf("expected container_not_found, got %d %v", w.Code, body)
	}
}

func TestStopAllRoute(t *testing.T) {
	r, token, _ := setupEnv(t)

	for i := 1; i <= 3; i++ {
		doRequest(t, r, http.MethodPost, fmt.Sprintf("/api/ctf/%d/start", i), token, nil)
	}

	w, body := doRequest(t, r, http.MethodPost, "/api/team/containers/stopall", token, nil)
	if w.Code != http.StatusOK || msgCode(body) != utils.MsgContainersTeamStop {
		t.Fatalf("expected containers_team_stop, got %d %v", w.Code, body)
	}
	if stopped, ok := body["stopped"].([]any); !ok || len(stopped) != 3 {
		t.Fatalf("expected 3 stopped problems, got %v", body["stopped"])
	}

	w, _ = doRequest(t, r, http.MethodGet, "/api/team/containers", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 listing containers, got %d", w.Code)
	}
	// An empty team is an empty JSON array, never null.
	if w.Body.String() != "[]" {
		t.Fatalf("expected empty array, got %s", w.Body.String())
	}
}

func TestSubmitFlagRoute(t *testing.T) {
	r, token, team := setupEnv(t)

	_, startBody := doRequest(t, r, http.MethodPost, "/api/ctf/1/start", token, nil)
	flag, _ := startBody["flag"].(string)
	if flag == "" {
		t.Fatalf("expected flag in development start response")
	}

	w, body := doRequest(t, r, http.MethodPost, "/api/ctf/1/flag", token, gin.H{"flag": "C0D{wrong}"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for wrong flag, got %d", w.Code)
	}
	if correct, _ := body["correct"].(bool); correct {
		t.Fatalf("wrong flag accepted")
	}

	w, body = doRequest(t, r, http.MethodPost, "/api/ctf/1/flag", token, gin.H{"flag": flag})
	if w.Code != http.StatusOK || msgCode(body) != utils.MsgCTFSolved {
		t.Fatalf("expected ctf_solved, got %d %v", w.Code, body)
	}

	var fresh models.Team
	if err := database.DB.First(&fresh, team.ID).Error; err != nil {
		t.Fatalf("reload team: %v", err)
	}
	if fresh.Coins != 100+300 {
		t.Fatalf("expected 400 coins after solve, got %d", fresh.Coins)
	}

	// Resubmission reports the solve without double-crediting.
	w, body = doRequest(t, r, http.MethodPost, "/api/ctf/1/flag", token, gin.H{"flag": flag})
	if msgCode(body) != utils.MsgCTFSolved {
		t.Fatalf("expected ctf_solved on resubmit, got %d %v", w.Code, body)
	}
	database.DB.First(&fresh, team.ID)
	if fresh.Coins != 400 {
		t.Fatalf("expected coins unchanged on resubmit, got %d", fresh.Coins)
	}
}

func TestSubmitFlagRouteNoContainer(t *testing.T) {
	r, token, _ := setupEnv(t)

	w, body := doRequest(t, r, http.MethodPost, "/api/ctf/1/flag", token, gin.H{"flag": "C0D{x}"})
	if w.Code != http.StatusNotFound || msgCode(body) != utils.MsgContainerNotFound {
		t.Fatalf("expected container_not_found, got %d %v", w.Code, body)
	}
}
