// Package storage 提供存储层抽象
//
// mock.go 提供用于测试的内存 PersistentStore 实现
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"recipe-admin/internal/shared/model"
)

// MockStore 内存存储实现（测试用）
//
// 行为与真实驱动对齐：
//   - 查找类方法不存在时返回 (nil, nil)
//   - 重复邮箱 / 同一所有者活跃标题冲突返回 ErrDuplicate
//   - 返回的指针是内部副本，调用方修改不影响存储状态
//
// 错误注入字段用于模拟底层存储故障（如审计写入失败的兜底路径）。
type MockStore struct {
	mu         sync.RWMutex
	users      map[string]*model.User
	recipes    map[string]*model.Recipe
	activities []*model.Activity

	// 错误注入（非 nil 时对应方法直接返回该错误）
	CreateActivityErr error
	CreateUserErr     error
	GetUserErr        error
}

// NewMockStore 创建内存存储
func NewMockStore() *MockStore {
	return &MockStore{
		users:   make(map[string]*model.User),
		recipes: make(map[string]*model.Recipe),
	}
}

var _ PersistentStore = (*MockStore)(nil)

// Close 关闭存储（空操作）
func (m *MockStore) Close() error {
	return nil
}

// ============================================================================
// UserStore
// ============================================================================

func (m *MockStore) CreateUser(ctx context.Context, user *model.User) error {
	if m.CreateUserErr != nil {
		return m.CreateUserErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	if _, ok := m.users[user.ID]; ok {
		return ErrDuplicate
	}
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.GetUserErr != nil {
		return nil, m.GetUserErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockStore) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if m.GetUserErr != nil {
		return nil, m.GetUserErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MockStore) UpdateUserProfile(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Email = user.Email
	existing.AvatarURL = user.AvatarURL
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *MockStore) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MockStore) SetUserOTP(ctx context.Context, id string, otp *string, expiresAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	u.OTP = otp
	u.OTPExpiresAt = expiresAt
	u.UpdatedAt = time.Now()
	return nil
}

func (m *MockStore) ListUsers(ctx context.Context) ([]*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]*model.User, 0, len(m.users))
	for _, u := range m.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

// ============================================================================
// RecipeStore
// ============================================================================

func (m *MockStore) CreateRecipe(ctx context.Context, recipe *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[recipe.ID]; ok {
		return ErrDuplicate
	}
	// 模拟 (user_id, title_lc) 活跃记录的部分唯一索引
	for _, r := range m.recipes {
		if r.DeletedAt == nil && r.UserID == recipe.UserID && r.TitleLC == recipe.TitleLC {
			return ErrDuplicate
		}
	}
	cp := cloneRecipe(recipe)
	m.recipes[recipe.ID] = cp
	return nil
}

func (m *MockStore) GetRecipe(ctx context.Context, id string) (*model.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, nil
	}
	return cloneRecipe(r), nil
}

func (m *MockStore) UpdateRecipe(ctx context.Context, recipe *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[recipe.ID]; !ok {
		return ErrNotFound
	}
	for _, r := range m.recipes {
		if r.ID != recipe.ID && r.DeletedAt == nil && r.UserID == recipe.UserID && r.TitleLC == recipe.TitleLC {
			return ErrDuplicate
		}
	}
	m.recipes[recipe.ID] = cloneRecipe(recipe)
	return nil
}

func (m *MockStore) ListActiveRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Recipe
	for _, r := range m.recipes {
		if r.DeletedAt != nil {
			continue
		}
		if ownerID != "" && r.UserID != ownerID {
			continue
		}
		out = append(out, cloneRecipe(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if out == nil {
		out = []*model.Recipe{}
	}
	return out, nil
}

func (m *MockStore) ListTrashedRecipes(ctx context.Context, ownerID string) ([]*model.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Recipe
	for _, r := range m.recipes {
		if r.DeletedAt == nil {
			continue
		}
		if ownerID != "" && r.UserID != ownerID {
			continue
		}
		out = append(out, cloneRecipe(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeletedAt.After(*out[j].DeletedAt) })
	if out == nil {
		out = []*model.Recipe{}
	}
	return out, nil
}

func (m *MockStore) FindActiveByTitle(ctx context.Context, ownerID, titleLC string) (*model.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	titleLC = strings.ToLower(strings.TrimSpace(titleLC))
	for _, r := range m.recipes {
		if r.DeletedAt == nil && r.UserID == ownerID && r.TitleLC == titleLC {
			return cloneRecipe(r), nil
		}
	}
	return nil, nil
}

func (m *MockStore) SetRecipeDeleted(ctx context.Context, id string, deletedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return ErrNotFound
	}
	r.DeletedAt = deletedAt
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MockStore) DeleteRecipe(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(m.recipes, id)
	return nil
}

func (m *MockStore) CountActiveRecipes(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, r := range m.recipes {
		if r.DeletedAt == nil {
			n++
		}
	}
	return n, nil
}

// ============================================================================
// ActivityStore
// ============================================================================

func (m *MockStore) CreateActivity(ctx context.Context, activity *model.Activity) error {
	if m.CreateActivityErr != nil {
		return m.CreateActivityErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *activity
	m.activities = append(m.activities, &cp)
	return nil
}

func (m *MockStore) ListRecentActivities(ctx context.Context, limit int) ([]*model.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Activity, 0, len(m.activities))
	for _, a := range m.activities {
		cp := *a
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PutUser 直接覆盖用户记录（测试断言用，可改写 Role/Active 等受保护字段）
func (m *MockStore) PutUser(user *model.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.ID] = &cp
}

// Activities 返回全部审计记录（测试断言用，按写入顺序）
func (m *MockStore) Activities() []*model.Activity {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Activity, len(m.activities))
	copy(out, m.activities)
	return out
}

func cloneRecipe(r *model.Recipe) *model.Recipe {
	cp := *r
	cp.Ingredients = append([]string(nil), r.Ingredients...)
	cp.Instructions = append([]string(nil), r.Instructions...)
	cp.Tags = append([]string(nil), r.Tags...)
	cp.DietaryRestrictions = append([]string(nil), r.DietaryRestrictions...)
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}
