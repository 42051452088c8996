package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"recipe-admin/internal/apiserver/activity"
	"recipe-admin/internal/apiserver/auth"
	"recipe-admin/internal/shared/model"
	"recipe-admin/internal/shared/storage"
)

var (
	alice = &auth.AuthUser{ID: "usr-alice", Role: "user"}
	bob   = &auth.AuthUser{ID: "usr-bob", Role: "user"}
	root  = &auth.AuthUser{ID: "usr-root", Role: auth.UserRoleAdmin}
)

func testHandler(t *testing.T) (*storage.MockStore, *http.ServeMux) {
	t.Helper()
	store := storage.NewMockStore()
	store.PutUser(&model.User{ID: "usr-alice", FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Role: model.UserRoleUser, Active: true})
	store.PutUser(&model.User{ID: "usr-bob", FirstName: "Bob", LastName: "Jones", Email: "bob@example.com", Role: model.UserRoleUser, Active: true})
	store.PutUser(&model.User{ID: "usr-root", FirstName: "Admin", LastName: "User", Email: "admin@example.com", Role: model.UserRoleAdmin, Active: true})

	h := NewHandler(store, activity.NewRecorder(store, nil), nil, 3)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return store, mux
}

func do(t *testing.T, mux *http.ServeMux, user *auth.AuthUser, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != nil {
		req = req.WithContext(auth.WithAuthUser(req.Context(), user))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return resp.Error.Code
}

func createRecipe(t *testing.T, mux *http.ServeMux, user *auth.AuthUser, title string) *model.Recipe {
	t.Helper()
	rr := do(t, mux, user, "POST", "/api/v1/recipes", map[string]any{
		"title":       title,
		"description": "test recipe",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create %q: status %d body %s", title, rr.Code, rr.Body.String())
	}
	var rec model.Recipe
	if err := json.Unmarshal(rr.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode recipe: %v", err)
	}
	return &rec
}

func TestCreateDuplicateTitle(t *testing.T) {
	_, mux := testHandler(t)
	createRecipe(t, mux, alice, "Tomato Soup")

	// 同一所有者，大小写与空白不同仍算重复
	rr := do(t, mux, alice, "POST", "/api/v1/recipes", map[string]any{
		"title": "  tomato SOUP ", "description": "again",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate create: status %d, want 409", rr.Code)
	}
	if code := errCode(t, rr); code != "DUPLICATE_TITLE" {
		t.Errorf("code = %q, want DUPLICATE_TITLE", code)
	}

	// 其他用户不受影响
	createRecipe(t, mux, bob, "Tomato Soup")
}

func TestCreateValidation(t *testing.T) {
	_, mux := testHandler(t)
	tests := []map[string]any{
		{"title": "   ", "description": "x"},
		{"title": "x", "description": ""},
		{},
	}
	for i, body := range tests {
		rr := do(t, mux, alice, "POST", "/api/v1/recipes", body)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("case %d: status %d, want 400", i, rr.Code)
			continue
		}
		if code := errCode(t, rr); code != "VALIDATION_ERROR" {
			t.Errorf("case %d: code = %q", i, code)
		}
	}
	if rr := do(t, mux, nil, "POST", "/api/v1/recipes", map[string]any{"title": "x", "description": "y"}); rr.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: status %d, want 401", rr.Code)
	}
}

func TestUpdateDuplicateExcludesSelf(t *testing.T) {
	_, mux := testHandler(t)
	soup := createRecipe(t, mux, alice, "Tomato Soup")
	createRecipe(t, mux, alice, "Minestrone")

	// 保持自己的标题不算冲突
	rr := do(t, mux, alice, "PUT", "/api/v1/recipes/"+soup.ID, map[string]any{
		"title": "Tomato Soup", "description": "richer",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("same-title update: status %d body %s", rr.Code, rr.Body.String())
	}

	// 改成自己名下另一条的标题冲突
	rr = do(t, mux, alice, "PUT", "/api/v1/recipes/"+soup.ID, map[string]any{
		"title": "minestrone", "description": "x",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("conflicting update: status %d, want 409", rr.Code)
	}
}

func TestLifecycleAuditChain(t *testing.T) {
	store, mux := testHandler(t)
	rec := createRecipe(t, mux, alice, "Tomato Soup")

	rr := do(t, mux, alice, "PUT", "/api/v1/recipes/"+rec.ID, map[string]any{
		"title": "Tomato Bisque", "description": "upgraded",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update: status %d", rr.Code)
	}
	if rr = do(t, mux, alice, "DELETE", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rr.Code)
	}
	// 恢复不产生审计记录
	if rr = do(t, mux, alice, "POST", "/api/v1/recipes/"+rec.ID+"/restore", nil); rr.Code != http.StatusOK {
		t.Fatalf("restore: status %d", rr.Code)
	}

	acts := store.Activities()
	if len(acts) != 3 {
		t.Fatalf("got %d activities, want 3", len(acts))
	}
	want := []struct {
		action model.ActivityAction
		title  string
	}{
		{model.ActionCreated, "Tomato Soup"},
		{model.ActionUpdated, "Tomato Bisque"},
		{model.ActionDeleted, "Tomato Bisque"},
	}
	for i, w := range want {
		if acts[i].Action != w.action || acts[i].RecipeTitle != w.title {
			t.Errorf("activity %d = %s %q, want %s %q", i, acts[i].Action, acts[i].RecipeTitle, w.action, w.title)
		}
		if acts[i].UserName != "Alice Smith" {
			t.Errorf("activity %d actor = %q, want denormalized name", i, acts[i].UserName)
		}
	}
}

func TestSoftDeleteRestoreCycle(t *testing.T) {
	_, mux := testHandler(t)
	rec := createRecipe(t, mux, alice, "Pancakes")

	if rr := do(t, mux, alice, "DELETE", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rr.Code)
	}
	// 回收站中的记录对普通读取不可见
	if rr := do(t, mux, alice, "GET", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusNotFound {
		t.Errorf("get trashed: status %d, want 404", rr.Code)
	}
	// 再次删除已在回收站的记录
	if rr := do(t, mux, alice, "DELETE", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusNotFound {
		t.Errorf("double delete: status %d, want 404", rr.Code)
	}

	rr := do(t, mux, alice, "GET", "/api/v1/recipes/trash", nil)
	var trash struct {
		Recipes []*model.Recipe `json:"recipes"`
		Count   int             `json:"count"`
	}
	json.Unmarshal(rr.Body.Bytes(), &trash)
	if trash.Count != 1 {
		t.Fatalf("trash count = %d, want 1", trash.Count)
	}

	if rr := do(t, mux, alice, "POST", "/api/v1/recipes/"+rec.ID+"/restore", nil); rr.Code != http.StatusOK {
		t.Fatalf("restore: status %d", rr.Code)
	}
	if rr := do(t, mux, alice, "GET", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("get restored: status %d, want 200", rr.Code)
	}
	// 不在回收站的记录不能恢复
	if rr := do(t, mux, alice, "POST", "/api/v1/recipes/"+rec.ID+"/restore", nil); rr.Code != http.StatusNotFound {
		t.Errorf("restore active: status %d, want 404", rr.Code)
	}
}

func TestRestoreIntoConflict(t *testing.T) {
	_, mux := testHandler(t)
	old := createRecipe(t, mux, alice, "Pancakes")
	if rr := do(t, mux, alice, "DELETE", "/api/v1/recipes/"+old.ID, nil); rr.Code != http.StatusOK {
		t.Fatalf("delete: status %d", rr.Code)
	}
	// 标题在回收站期间被复用
	createRecipe(t, mux, alice, "Pancakes")

	rr := do(t, mux, alice, "POST", "/api/v1/recipes/"+old.ID+"/restore", nil)
	if rr.Code != http.StatusConflict {
		t.Fatalf("restore into conflict: status %d, want 409", rr.Code)
	}
	if code := errCode(t, rr); code != "DUPLICATE_TITLE" {
		t.Errorf("code = %q", code)
	}
}

func TestOwnership(t *testing.T) {
	_, mux := testHandler(t)
	rec := createRecipe(t, mux, alice, "Secret Sauce")

	if rr := do(t, mux, bob, "GET", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusForbidden {
		t.Errorf("bob get: status %d, want 403", rr.Code)
	}
	if rr := do(t, mux, bob, "DELETE", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusForbidden {
		t.Errorf("bob delete: status %d, want 403", rr.Code)
	}
	if rr := do(t, mux, root, "GET", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("admin get: status %d, want 200", rr.Code)
	}
	rr := do(t, mux, root, "PUT", "/api/v1/recipes/"+rec.ID, map[string]any{
		"title": "Secret Sauce", "description": "moderated",
	})
	if rr.Code != http.StatusOK {
		t.Errorf("admin update: status %d, want 200", rr.Code)
	}
}

func TestBulkDelete(t *testing.T) {
	store, mux := testHandler(t)
	a := createRecipe(t, mux, alice, "One")
	b := createRecipe(t, mux, alice, "Two")
	other := createRecipe(t, mux, bob, "Theirs")

	// 不存在的和他人的被静默跳过
	rr := do(t, mux, alice, "POST", "/api/v1/recipes/bulk-delete", map[string]any{
		"ids": []string{a.ID, "rcp-missing", other.ID},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("bulk delete: status %d body %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Succeeded []string `json:"succeeded"`
		Count     int      `json:"count"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Count != 1 || len(resp.Succeeded) != 1 || resp.Succeeded[0] != a.ID {
		t.Fatalf("succeeded = %v (count %d), want [%s]", resp.Succeeded, resp.Count, a.ID)
	}

	// 每条成功的删除都有审计记录（3 created + 1 deleted）
	acts := store.Activities()
	if len(acts) != 4 || acts[3].Action != model.ActionDeleted || acts[3].RecipeID != a.ID {
		t.Errorf("unexpected audit trail: %d entries", len(acts))
	}

	// 超过批量上限
	ids := make([]string, 4)
	for i := range ids {
		ids[i] = fmt.Sprintf("rcp-%d", i)
	}
	if rr := do(t, mux, alice, "POST", "/api/v1/recipes/bulk-delete", map[string]any{"ids": ids}); rr.Code != http.StatusBadRequest {
		t.Errorf("over limit: status %d, want 400", rr.Code)
	}

	_ = b
}

func TestBulkRestore(t *testing.T) {
	store, mux := testHandler(t)
	a := createRecipe(t, mux, alice, "One")
	b := createRecipe(t, mux, alice, "Two")
	do(t, mux, alice, "DELETE", "/api/v1/recipes/"+a.ID, nil)
	do(t, mux, alice, "DELETE", "/api/v1/recipes/"+b.ID, nil)
	// b 的标题被复用，恢复时应被跳过
	createRecipe(t, mux, alice, "Two")

	before := len(store.Activities())
	rr := do(t, mux, alice, "POST", "/api/v1/recipes/bulk-restore", map[string]any{
		"ids": []string{a.ID, b.ID, "rcp-missing"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("bulk restore: status %d", rr.Code)
	}
	var resp struct {
		Succeeded []string `json:"succeeded"`
		Count     int      `json:"count"`
	}
	json.Unmarshal(rr.Body.Bytes(), &resp)
	if resp.Count != 1 || resp.Succeeded[0] != a.ID {
		t.Fatalf("succeeded = %v, want [%s]", resp.Succeeded, a.ID)
	}
	// 恢复不产生审计记录
	if after := len(store.Activities()); after != before {
		t.Errorf("restore added %d audit entries", after-before)
	}
}

func TestPurge(t *testing.T) {
	store, mux := testHandler(t)
	rec := createRecipe(t, mux, alice, "Ephemeral")

	if rr := do(t, mux, bob, "DELETE", "/api/v1/recipes/"+rec.ID+"/purge", nil); rr.Code != http.StatusForbidden {
		t.Errorf("bob purge: status %d, want 403", rr.Code)
	}
	if rr := do(t, mux, alice, "DELETE", "/api/v1/recipes/"+rec.ID+"/purge", nil); rr.Code != http.StatusOK {
		t.Fatalf("purge: status %d", rr.Code)
	}
	if rr := do(t, mux, alice, "GET", "/api/v1/recipes/"+rec.ID, nil); rr.Code != http.StatusNotFound {
		t.Errorf("get purged: status %d, want 404", rr.Code)
	}
	// 记录没了，审计保留
	acts := store.Activities()
	if len(acts) != 2 || acts[1].Action != model.ActionDeleted {
		t.Errorf("audit trail = %d entries, want created+deleted", len(acts))
	}
	// 标题立即可复用
	createRecipe(t, mux, alice, "Ephemeral")
}

func TestAdminDelete(t *testing.T) {
	_, mux := testHandler(t)
	rec := createRecipe(t, mux, bob, "Spam Recipe")

	if rr := do(t, mux, alice, "DELETE", "/api/v1/admin/recipes/"+rec.ID, nil); rr.Code != http.StatusForbidden {
		t.Errorf("non-admin: status %d, want 403", rr.Code)
	}
	if rr := do(t, mux, root, "DELETE", "/api/v1/admin/recipes/"+rec.ID, nil); rr.Code != http.StatusOK {
		t.Errorf("admin: status %d, want 200", rr.Code)
	}
	if rr := do(t, mux, root, "DELETE", "/api/v1/admin/recipes/rcp-missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing: status %d, want 404", rr.Code)
	}
}

func TestListVisibility(t *testing.T) {
	_, mux := testHandler(t)
	createRecipe(t, mux, alice, "Visible")
	trashed := createRecipe(t, mux, alice, "Hidden")
	do(t, mux, alice, "DELETE", "/api/v1/recipes/"+trashed.ID, nil)
	createRecipe(t, mux, bob, "Bobs Dish")

	var list struct {
		Recipes []*model.Recipe `json:"recipes"`
		Count   int             `json:"count"`
	}

	// 公开列表：所有用户的活跃食谱，无需认证
	rr := do(t, mux, nil, "GET", "/api/v1/recipes", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("public list: status %d", rr.Code)
	}
	json.Unmarshal(rr.Body.Bytes(), &list)
	if list.Count != 2 {
		t.Errorf("public count = %d, want 2 (trashed excluded)", list.Count)
	}

	rr = do(t, mux, alice, "GET", "/api/v1/recipes/mine", nil)
	json.Unmarshal(rr.Body.Bytes(), &list)
	if list.Count != 1 {
		t.Errorf("mine count = %d, want 1", list.Count)
	}

	rr = do(t, mux, root, "GET", "/api/v1/recipes/admin/all", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("admin all: status %d", rr.Code)
	}
	json.Unmarshal(rr.Body.Bytes(), &list)
	if list.Count != 2 {
		t.Errorf("admin count = %d, want 2", list.Count)
	}

	// 管理员回收站看到所有用户的
	other := createRecipe(t, mux, bob, "Bob Trash")
	do(t, mux, bob, "DELETE", "/api/v1/recipes/"+other.ID, nil)
	rr = do(t, mux, root, "GET", "/api/v1/recipes/trash", nil)
	json.Unmarshal(rr.Body.Bytes(), &list)
	if list.Count != 2 {
		t.Errorf("admin trash count = %d, want 2", list.Count)
	}
}

func TestActiveRecipeGauge(t *testing.T) {
	store := storage.NewMockStore()
	store.PutUser(&model.User{ID: "usr-alice", FirstName: "Alice", LastName: "Smith", Email: "alice@example.com", Role: model.UserRoleUser, Active: true})

	h := NewHandler(store, activity.NewRecorder(store, nil), nil, 3)
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "recipes_active"})
	h.SetMetrics(gauge)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	assertGauge := func(step string, want float64) {
		t.Helper()
		if got := testutil.ToFloat64(gauge); got != want {
			t.Errorf("%s: gauge = %v, want %v", step, got, want)
		}
	}

	soup := createRecipe(t, mux, alice, "Tomato Soup")
	assertGauge("after create", 1)
	createRecipe(t, mux, alice, "Pasta")
	assertGauge("after second create", 2)

	do(t, mux, alice, "DELETE", "/api/v1/recipes/"+soup.ID, nil)
	assertGauge("after soft delete", 1)
	do(t, mux, alice, "POST", "/api/v1/recipes/"+soup.ID+"/restore", nil)
	assertGauge("after restore", 2)
	do(t, mux, alice, "DELETE", "/api/v1/recipes/"+soup.ID+"/purge", nil)
	assertGauge("after purge", 1)
}
