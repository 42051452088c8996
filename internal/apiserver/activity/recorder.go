package activity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"recipe-admin/internal/shared/model"
)

// RecorderStore 审计记录所需的最小存储接口
type RecorderStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	CreateActivity(ctx context.Context, activity *model.Activity) error
}

// unknownUserName 操作者已被删除或查询失败时的占位名
const unknownUserName = "Unknown User"

// Recorder 审计记录器
//
// 操作者名称和食谱标题在写入时冻结为快照，后续改名/删除不回写历史记录。
type Recorder struct {
	store     RecorderStore
	publisher Publisher

	// 可选指标：按动作分类的审计事件计数、写入失败计数
	eventCtr   *prometheus.CounterVec
	failureCtr prometheus.Counter
}

// NewRecorder 创建审计记录器
func NewRecorder(store RecorderStore, publisher Publisher) *Recorder {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Recorder{store: store, publisher: publisher}
}

// SetMetrics 注入审计事件/失败计数指标
func (rec *Recorder) SetMetrics(eventCtr *prometheus.CounterVec, failureCtr prometheus.Counter) {
	rec.eventCtr = eventCtr
	rec.failureCtr = failureCtr
}

// RecordBestEffort 追加一条审计记录并广播
//
// 任何失败只记日志和指标，绝不向调用方传播——审计失败不能使业务变更失败。
// 广播同样尽力而为。
func (rec *Recorder) RecordBestEffort(ctx context.Context, actorID string, action model.ActivityAction, recipe *model.Recipe) {
	userName := unknownUserName
	user, err := rec.store.GetUserByID(ctx, actorID)
	if err != nil {
		log.Printf("[activity] resolve actor %s failed: %v", actorID, err)
	} else if user != nil {
		userName = user.FullName()
	}

	activity := &model.Activity{
		ID:          generateID("act"),
		UserID:      actorID,
		UserName:    userName,
		Action:      action,
		RecipeID:    recipe.ID,
		RecipeTitle: recipe.Title,
		CreatedAt:   time.Now().UTC(),
	}

	if err := rec.store.CreateActivity(ctx, activity); err != nil {
		log.Printf("[activity] record %s for recipe %s failed: %v", action, recipe.ID, err)
		if rec.failureCtr != nil {
			rec.failureCtr.Inc()
		}
		return
	}
	if rec.eventCtr != nil {
		rec.eventCtr.WithLabelValues(string(action)).Inc()
	}

	rec.publisher.Publish(activity)
}

func generateID(prefix string) string {
	b := make([]byte, 6)
	rand.Read(b)
	return prefix + "-" + hex.EncodeToString(b)
}
