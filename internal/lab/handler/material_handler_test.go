package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/huayan-lab/labtrack/internal/lab/entity"
	"github.com/huayan-lab/labtrack/internal/lab/repository"
	"github.com/huayan-lab/labtrack/internal/lab/service"
	"github.com/huayan-lab/labtrack/internal/lab/testutil"
	"github.com/huayan-lab/labtrack/internal/lab/workflow"
	"github.com/huayan-lab/labtrack/internal/middleware"
)

func setupMaterialTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	materialSvc := service.NewMaterialService(repos.Material, repos.Record, repos.Quote, repos.Certificate, repos.ActivityLog)
	recordSvc := service.NewRecordService(repos.Record, repos.Material, repos.ActivityLog)
	quoteSvc := service.NewQuoteService(repos.Quote, repos.Material, repos.ActivityLog)
	certSvc := service.NewCertificateService(repos.Certificate, repos.Material, repos.ActivityLog, nil, "")
	exportSvc := service.NewExportService(repos.Material)
	dashboardSvc := service.NewDashboardService(repos.Material, nil)

	materialHandler := NewMaterialHandler(materialSvc, exportSvc)
	recordHandler := NewRecordHandler(recordSvc)
	quoteHandler := NewQuoteHandler(quoteSvc)
	certHandler := NewCertificateHandler(certSvc)
	dashboardHandler := NewDashboardHandler(dashboardSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/materials", middleware.RequireRole("secretary"), materialHandler.Create)
	api.GET("/materials", materialHandler.List)
	api.GET("/materials/scan/:code", materialHandler.Scan)
	api.GET("/materials/:id", materialHandler.Get)
	api.GET("/materials/:id/history", materialHandler.History)
	api.POST("/materials/:id/transition", materialHandler.Transition)
	api.POST("/materials/:id/force-state", materialHandler.ForceState)
	api.POST("/materials/:id/test-records", recordHandler.CreateTestRecord)
	api.POST("/materials/:id/qc-inspections", recordHandler.CreateQCInspection)
	api.POST("/materials/:id/payments", quoteHandler.CreatePayment)
	api.POST("/materials/:id/approvals", certHandler.CreateApproval)
	api.GET("/dashboard/overview", dashboardHandler.Overview)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// roleTokens returns a JWT per business role
func roleTokens() map[string]string {
	tokens := make(map[string]string)
	for _, role := range workflow.ValidRoles() {
		r := string(role)
		tokens[r] = testutil.GenerateTestToken("user-"+r, "测试"+r, r)
	}
	return tokens
}

func createTestMaterial(t *testing.T, env *testutil.TestEnv, token string) string {
	t.Helper()
	body := map[string]interface{}{
		"material_type": "铝合金型材",
		"customer_name": "华研客户A",
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	return data["id"].(string)
}

func transition(env *testutil.TestEnv, id, decision, token string) int {
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/transition",
		map[string]interface{}{"decision": decision}, token)
	return w.Code
}

// TestMaterialCreateAndScan tests registering a material and looking it up by QR code
func TestMaterialCreateAndScan(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])

	var m entity.Material
	env.DB.Where("id = ?", id).First(&m)
	if m.Stage != "received" || m.Status != "pending" {
		t.Fatalf("expected received/pending, got %s/%s", m.Stage, m.Status)
	}
	if m.Code == "" {
		t.Fatal("expected generated code")
	}

	// Scan by code resolves to the same material
	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/materials/scan/"+m.Code, nil, tokens["tester"])
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	if data["id"] != id {
		t.Fatalf("scan resolved wrong material: %v", data["id"])
	}
}

// TestMaterialCreateRoleEnforcement verifies only the secretary (or uncle) can register materials
func TestMaterialCreateRoleEnforcement(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	body := map[string]interface{}{
		"material_type": "铝合金型材",
		"customer_name": "华研客户B",
	}
	for _, role := range []string{"tester", "manager", "qc", "accounting"} {
		w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials", body, tokens[role])
		if w.Code != http.StatusForbidden {
			t.Fatalf("%s create material: expected 403, got %d", role, w.Code)
		}
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials", body, tokens["uncle"])
	if w.Code != http.StatusCreated {
		t.Fatalf("uncle create material: expected 201, got %d", w.Code)
	}
}

// TestFullLifecycle walks a material through every stage to completion
func TestFullLifecycle(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])

	// received → testing (tester)
	if code := transition(env, id, "accept", tokens["tester"]); code != http.StatusOK {
		t.Fatalf("received→testing: got %d", code)
	}

	// leaving testing needs a test record
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/test-records",
		map[string]interface{}{"test_item": "拉伸强度", "conclusion": "passed"}, tokens["tester"])
	if w.Code != http.StatusCreated {
		t.Fatalf("create test record: got %d: %s", w.Code, w.Body.String())
	}

	// testing → review (manager)
	if code := transition(env, id, "accept", tokens["manager"]); code != http.StatusOK {
		t.Fatalf("testing→review: got %d", code)
	}

	// review → qc (qc)
	if code := transition(env, id, "accept", tokens["qc"]); code != http.StatusOK {
		t.Fatalf("review→qc: got %d", code)
	}

	// leaving qc needs an inspection
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/qc-inspections",
		map[string]interface{}{"check_item": "外观", "result": "passed"}, tokens["qc"])
	if w.Code != http.StatusCreated {
		t.Fatalf("create qc inspection: got %d: %s", w.Code, w.Body.String())
	}

	// qc → accounting (accounting)
	if code := transition(env, id, "accept", tokens["accounting"]); code != http.StatusOK {
		t.Fatalf("qc→accounting: got %d", code)
	}

	// leaving accounting needs a payment
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/payments",
		map[string]interface{}{"amount": 1500.00, "method": "transfer"}, tokens["accounting"])
	if w.Code != http.StatusCreated {
		t.Fatalf("create payment: got %d: %s", w.Code, w.Body.String())
	}

	// accounting → final_approval (secretary)
	if code := transition(env, id, "accept", tokens["secretary"]); code != http.StatusOK {
		t.Fatalf("accounting→final_approval: got %d", code)
	}

	// leaving final_approval needs an approval record
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/approvals",
		map[string]interface{}{"decision": "approved"}, tokens["secretary"])
	if w.Code != http.StatusCreated {
		t.Fatalf("create approval: got %d: %s", w.Code, w.Body.String())
	}

	// final_approval → completed (secretary)
	if code := transition(env, id, "accept", tokens["secretary"]); code != http.StatusOK {
		t.Fatalf("final_approval→completed: got %d", code)
	}

	var m entity.Material
	env.DB.Where("id = ?", id).First(&m)
	if m.Stage != "completed" || m.Status != "completed" {
		t.Fatalf("expected completed/completed, got %s/%s", m.Stage, m.Status)
	}

	// completed is terminal: any further transition is a conflict
	if code := transition(env, id, "accept", tokens["uncle"]); code != http.StatusConflict {
		t.Fatalf("expected 409 at terminal stage, got %d", code)
	}
}

// TestTransitionRoleEnforcement verifies the wrong role gets 403
func TestTransitionRoleEnforcement(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])

	// secretary cannot advance at received (tester's stage)
	if code := transition(env, id, "accept", tokens["secretary"]); code != http.StatusForbidden {
		t.Fatalf("expected 403 for secretary at received, got %d", code)
	}

	// uncle can advance anywhere
	if code := transition(env, id, "accept", tokens["uncle"]); code != http.StatusOK {
		t.Fatalf("expected 200 for uncle, got %d", code)
	}
}

// TestEvidenceGateReturns422 verifies leaving testing without a test record fails
func TestEvidenceGateReturns422(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])
	transition(env, id, "accept", tokens["tester"]) // → testing

	// no test record yet
	if code := transition(env, id, "accept", tokens["manager"]); code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 without test record, got %d", code)
	}

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/test-records",
		map[string]interface{}{"test_item": "硬度", "conclusion": "passed"}, tokens["tester"])

	if code := transition(env, id, "accept", tokens["manager"]); code != http.StatusOK {
		t.Fatalf("expected 200 with test record, got %d", code)
	}
}

// TestRejectionStepsBack verifies a reject moves the material back one stage with rejected status
func TestRejectionStepsBack(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])
	transition(env, id, "accept", tokens["tester"]) // → testing

	// manager rejects at testing → back to received
	if code := transition(env, id, "reject", tokens["manager"]); code != http.StatusOK {
		t.Fatalf("reject at testing: got %d", code)
	}

	var m entity.Material
	env.DB.Where("id = ?", id).First(&m)
	if m.Stage != "received" || m.Status != "rejected" {
		t.Fatalf("expected received/rejected, got %s/%s", m.Stage, m.Status)
	}

	// reject at received is invalid: nothing earlier to fall back to
	if code := transition(env, id, "reject", tokens["tester"]); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for reject at received, got %d", code)
	}

	// tester resubmits after rework
	if code := transition(env, id, "accept", tokens["tester"]); code != http.StatusOK {
		t.Fatalf("resubmit after reject: got %d", code)
	}
}

// TestVersionConflict verifies a stale-version update gets 409
func TestVersionConflict(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])

	// Simulate a concurrent writer bumping the version underneath
	env.DB.Model(&entity.Material{}).Where("id = ?", id).Update("version", 5)

	// Handler read version 5; force a mismatch by resetting after read
	// is racy in a test, so exercise the repo guard directly instead.
	repo := repository.NewMaterialRepository(env.DB)
	err := repo.UpdateState(context.Background(), id, 1, "testing", "in_progress")
	if err != repository.ErrVersionConflict {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	// Correct version succeeds
	if err := repo.UpdateState(context.Background(), id, 5, "testing", "in_progress"); err != nil {
		t.Fatalf("expected success with matching version, got %v", err)
	}
}

// TestForceStateUncleOnly verifies only uncle may force-set state and invariants hold
func TestForceStateUncleOnly(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])

	body := map[string]interface{}{"stage": "qc", "status": "in_progress", "reason": "补录"}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/force-state", body, tokens["manager"])
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for manager force-state, got %d", w.Code)
	}

	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/force-state", body, tokens["uncle"])
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for uncle force-state, got %d: %s", w.Code, w.Body.String())
	}

	// completed stage with non-completed status violates the invariant
	bad := map[string]interface{}{"stage": "completed", "status": "pending"}
	w = testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/materials/"+id+"/force-state", bad, tokens["uncle"])
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invariant violation, got %d", w.Code)
	}
}

// TestListVisibilityByRole verifies the list endpoint only shows stages visible to the role
func TestListVisibilityByRole(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	// one material at received, one advanced to testing
	createTestMaterial(t, env, tokens["secretary"])
	id2 := createTestMaterial(t, env, tokens["secretary"])
	transition(env, id2, "accept", tokens["tester"])

	// tester sees received + testing
	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/materials", nil, tokens["tester"])
	resp := testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("tester expected 2 materials, got %d", len(items))
	}

	// qc sees neither (visible stages are review/qc)
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/materials", nil, tokens["qc"])
	resp = testutil.ParseResponse(w)
	items = resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 0 {
		t.Fatalf("qc expected 0 materials, got %d", len(items))
	}

	// manager sees only the one in testing
	w = testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/materials", nil, tokens["manager"])
	resp = testutil.ParseResponse(w)
	items = resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("manager expected 1 material, got %d", len(items))
	}
}

// TestHistoryLogged verifies transitions append to the activity log
func TestHistoryLogged(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])
	transition(env, id, "accept", tokens["tester"])

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/materials/"+id+"/history", nil, tokens["uncle"])
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := testutil.ParseResponse(w)
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) < 2 { // material_create + transition_accept
		t.Fatalf("expected at least 2 log entries, got %d", len(items))
	}
}

// TestDashboardRejectedCountByVisibility verifies the rejected count only covers stages the role can see
func TestDashboardRejectedCountByVisibility(t *testing.T) {
	env := setupMaterialTest(t)
	tokens := roleTokens()

	id := createTestMaterial(t, env, tokens["secretary"])
	transition(env, id, "accept", tokens["tester"])  // → testing
	transition(env, id, "reject", tokens["manager"]) // 退回received，状态rejected

	overview := func(token string) map[string]interface{} {
		w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/dashboard/overview", nil, token)
		if w.Code != http.StatusOK {
			t.Fatalf("overview: got %d: %s", w.Code, w.Body.String())
		}
		return testutil.ParseResponse(w)["data"].(map[string]interface{})
	}

	if got := overview(tokens["tester"])["rejected_count"].(float64); got != 1 {
		t.Fatalf("tester rejected_count: expected 1, got %v", got)
	}
	// qc不可见received阶段，退回不计入其看板
	if got := overview(tokens["qc"])["rejected_count"].(float64); got != 0 {
		t.Fatalf("qc rejected_count: expected 0, got %v", got)
	}
	if got := overview(tokens["uncle"])["rejected_count"].(float64); got != 1 {
		t.Fatalf("uncle rejected_count: expected 1, got %v", got)
	}
}
