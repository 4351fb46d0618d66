package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"hacktrack/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ═══════════════════════════════════════════════════════════
// Test Setup（内存sqlite验证唯一约束/级联这类依赖真实DB的语义）
// ═══════════════════════════════════════════════════════════

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_test_%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("无法打开测试数据库: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取SQL DB失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Contest{},
		&model.Notification{},
		&model.CalendarEvent{},
	); err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

func mustCreateContest(t *testing.T, db *gorm.DB, externalID string) *model.Contest {
	t.Helper()
	c := &model.Contest{
		ExternalID:      externalID,
		Name:            "Round #" + externalID,
		Platform:        model.PlatformCodeforces,
		StartTime:       testNow.Add(48 * time.Hour),
		EndTime:         testNow.Add(50 * time.Hour),
		DurationSeconds: 7200,
		URL:             "https://codeforces.com/contest/" + externalID,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("创建竞赛失败: %v", err)
	}
	return c
}

// (user, contest, lead)三元组唯一：InsertIfAbsent冲突无操作，send_time不可变
func TestNotificationRepo_TripleUnique(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	origSendTime := testNow.Add(47 * time.Hour)
	first := &model.Notification{
		UserID: 1, ContestID: 2, MinutesBefore: 60,
		SendTime: origSendTime, Status: model.NotificationStatusPending,
	}
	if err := repo.InsertIfAbsent(ctx, first); err != nil {
		t.Fatalf("首次插入失败: %v", err)
	}

	// 同三元组、不同send_time再插：应无操作、无唯一键冲突
	dup := &model.Notification{
		UserID: 1, ContestID: 2, MinutesBefore: 60,
		SendTime: origSendTime.Add(time.Hour), Status: model.NotificationStatusPending,
	}
	if err := repo.InsertIfAbsent(ctx, dup); err != nil {
		t.Fatalf("冲突插入应无操作而非报错: %v", err)
	}

	var rows []model.Notification
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("三元组应唯一，实际%d行", len(rows))
	}
	if !rows[0].SendTime.Equal(origSendTime) {
		t.Fatalf("send_time应保持不变，实际: %v", rows[0].SendTime)
	}

	// 不同lead是另一个键，可正常插入
	other := &model.Notification{
		UserID: 1, ContestID: 2, MinutesBefore: 1440,
		SendTime: testNow.Add(24 * time.Hour), Status: model.NotificationStatusPending,
	}
	if err := repo.InsertIfAbsent(ctx, other); err != nil {
		t.Fatalf("不同lead插入失败: %v", err)
	}
}

// failed行不会被InsertIfAbsent复活回pending
func TestNotificationRepo_InsertIfAbsentKeepsFailed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	n := &model.Notification{
		UserID: 1, ContestID: 2, MinutesBefore: 60,
		SendTime: testNow.Add(time.Hour), Status: model.NotificationStatusPending,
	}
	if err := repo.InsertIfAbsent(ctx, n); err != nil {
		t.Fatalf("插入失败: %v", err)
	}
	if err := repo.MarkFailed(ctx, n.ID); err != nil {
		t.Fatalf("标记failed失败: %v", err)
	}

	if err := repo.InsertIfAbsent(ctx, &model.Notification{
		UserID: 1, ContestID: 2, MinutesBefore: 60,
		SendTime: testNow.Add(time.Hour), Status: model.NotificationStatusPending,
	}); err != nil {
		t.Fatalf("重插失败: %v", err)
	}

	var stored model.Notification
	if err := db.First(&stored, n.ID).Error; err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if stored.Status != model.NotificationStatusFailed {
		t.Fatalf("failed不应被复活，实际: %s", stored.Status)
	}
}

// ListDue只返回到期的pending
func TestNotificationRepo_ListDue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	duePending := &model.Notification{
		UserID: 1, ContestID: 1, MinutesBefore: 60,
		SendTime: testNow.Add(-time.Minute), Status: model.NotificationStatusPending,
	}
	futurePending := &model.Notification{
		UserID: 1, ContestID: 2, MinutesBefore: 60,
		SendTime: testNow.Add(time.Hour), Status: model.NotificationStatusPending,
	}
	dueFailed := &model.Notification{
		UserID: 1, ContestID: 3, MinutesBefore: 60,
		SendTime: testNow.Add(-time.Minute), Status: model.NotificationStatusFailed,
	}
	for _, n := range []*model.Notification{duePending, futurePending, dueFailed} {
		if err := repo.InsertIfAbsent(ctx, n); err != nil {
			t.Fatalf("插入失败: %v", err)
		}
	}

	due, err := repo.ListDue(ctx, testNow)
	if err != nil {
		t.Fatalf("查询到期通知失败: %v", err)
	}
	if len(due) != 1 || due[0].ContestID != 1 {
		t.Fatalf("只应返回到期的pending，实际: %+v", due)
	}
}

// external_id唯一upsert：重复入库更新字段而非新增行
func TestContestRepo_UpsertByExternalID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContestRepository(db)
	ctx := context.Background()

	c1 := &model.Contest{
		ExternalID: "cf-2001", Name: "C", Platform: model.PlatformCodeforces,
		StartTime: testNow.Add(90 * time.Minute), EndTime: testNow.Add(210 * time.Minute),
		DurationSeconds: 7200, URL: "https://codeforces.com/contest/2001",
	}
	if err := repo.UpsertBatch(ctx, []*model.Contest{c1}); err != nil {
		t.Fatalf("首次入库失败: %v", err)
	}

	c2 := &model.Contest{
		ExternalID: "cf-2001", Name: "C (renamed)", Platform: model.PlatformCodeforces,
		StartTime: testNow.Add(90 * time.Minute), EndTime: testNow.Add(210 * time.Minute),
		DurationSeconds: 7200, URL: "https://codeforces.com/contest/2001",
	}
	if err := repo.UpsertBatch(ctx, []*model.Contest{c2}); err != nil {
		t.Fatalf("重复入库失败: %v", err)
	}

	var rows []model.Contest
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("同一external_id应只有1行，实际%d行", len(rows))
	}
	if rows[0].Name != "C (renamed)" {
		t.Fatalf("名称应被更新，实际: %s", rows[0].Name)
	}
}

// 保留期清理的级联范围：只删目标竞赛及其通知/日历事件，不波及其他
func TestContestRepo_DeleteEndedBeforeCascade(t *testing.T) {
	db := setupTestDB(t)
	contestRepo := NewContestRepository(db)
	notificationRepo := NewNotificationRepository(db)
	linkRepo := NewCalendarEventRepository(db)
	ctx := context.Background()

	stale := mustCreateContest(t, db, "cf-old")
	db.Model(stale).Updates(map[string]interface{}{
		"start_time": testNow.Add(-4 * time.Hour),
		"end_time":   testNow.Add(-2 * time.Hour),
	})
	live := mustCreateContest(t, db, "cf-live")

	for _, c := range []*model.Contest{stale, live} {
		if err := notificationRepo.InsertIfAbsent(ctx, &model.Notification{
			UserID: 1, ContestID: c.ID, MinutesBefore: 60,
			SendTime: testNow.Add(time.Hour), Status: model.NotificationStatusPending,
		}); err != nil {
			t.Fatalf("插入通知失败: %v", err)
		}
		if err := linkRepo.CreateLink(ctx, &model.CalendarEvent{
			UserID: 1, ContestID: c.ID, GoogleEventID: "gcal-" + c.ExternalID,
		}); err != nil {
			t.Fatalf("插入日历关联失败: %v", err)
		}
	}

	deleted, err := contestRepo.DeleteEndedBefore(ctx, testNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("清理失败: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("应清理1个竞赛，实际%d个", deleted)
	}

	if got, _ := notificationRepo.CountByContest(ctx, stale.ID); got != 0 {
		t.Fatalf("过期竞赛的通知应被级联删除，剩余%d条", got)
	}
	if got, _ := notificationRepo.CountByContest(ctx, live.ID); got != 1 {
		t.Fatalf("存活竞赛的通知不应被波及，剩余%d条", got)
	}
	if link, _ := linkRepo.GetLink(ctx, 1, stale.ID); link != nil {
		t.Fatal("过期竞赛的日历关联应被级联删除")
	}
	if link, _ := linkRepo.GetLink(ctx, 1, live.ID); link == nil {
		t.Fatal("存活竞赛的日历关联不应被波及")
	}
	if c, _ := contestRepo.GetByID(ctx, stale.ID); c != nil {
		t.Fatal("过期竞赛本身应被删除")
	}
}

// 合格用户：已验证 + 偏好非空
func TestUserRepo_ListEligible(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	users := []*model.User{
		{Email: "a@test.com", Name: "a", IsVerified: true, PreferredPlatforms: []byte(`["Codeforces"]`)},
		{Email: "b@test.com", Name: "b", IsVerified: false, PreferredPlatforms: []byte(`["Codeforces"]`)},
		{Email: "c@test.com", Name: "c", IsVerified: true, PreferredPlatforms: []byte(`[]`)},
		{Email: "d@test.com", Name: "d", IsVerified: true},
	}
	for _, u := range users {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("创建用户失败: %v", err)
		}
	}

	eligible, err := repo.ListEligible(ctx)
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(eligible) != 1 || eligible[0].Email != "a@test.com" {
		t.Fatalf("只有已验证且偏好非空的用户合格，实际: %+v", eligible)
	}
}

// (user, contest)日历关联：不存在返回nil而非错误
func TestCalendarRepo_GetLinkAbsent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCalendarEventRepository(db)

	link, err := repo.GetLink(context.Background(), 1, 99)
	if err != nil {
		t.Fatalf("缺失关联不应报错: %v", err)
	}
	if link != nil {
		t.Fatalf("应返回nil，实际: %+v", link)
	}
}

// 排期窗口查询：未结束且30天内开始
func TestContestRepo_ListWindow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewContestRepository(db)
	ctx := context.Background()

	inWindow := mustCreateContest(t, db, "cf-in")
	far := mustCreateContest(t, db, "cf-far")
	db.Model(far).Updates(map[string]interface{}{
		"start_time": testNow.Add(40 * 24 * time.Hour),
		"end_time":   testNow.Add(40*24*time.Hour + 2*time.Hour),
	})
	ended := mustCreateContest(t, db, "cf-ended")
	db.Model(ended).Updates(map[string]interface{}{
		"start_time": testNow.Add(-4 * time.Hour),
		"end_time":   testNow.Add(-2 * time.Hour),
	})

	contests, err := repo.ListWindow(ctx, testNow, testNow.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(contests) != 1 || contests[0].ID != inWindow.ID {
		t.Fatalf("窗口查询结果错误: %+v", contests)
	}
}
