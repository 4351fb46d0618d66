package service

import (
	"context"
	"io"
	"time"

	"hacktrack/internal/model"

	"github.com/sirupsen/logrus"
)

// ── 测试辅助：内存版仓储与能力桩 ──

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// ── 竞赛仓储 ──

type mockContestRepo struct {
	nextID   uint64
	contests map[uint64]*model.Contest
	cutoffs  []time.Time // DeleteEndedBefore的调用记录
}

func newMockContestRepo() *mockContestRepo {
	return &mockContestRepo{nextID: 1, contests: map[uint64]*model.Contest{}}
}

func (m *mockContestRepo) UpsertBatch(_ context.Context, contests []*model.Contest) error {
	for _, c := range contests {
		if existing := m.findByExternalID(c.ExternalID); existing != nil {
			existing.Name = c.Name
			existing.Platform = c.Platform
			existing.StartTime = c.StartTime
			existing.EndTime = c.EndTime
			existing.DurationSeconds = c.DurationSeconds
			existing.URL = c.URL
			continue
		}
		stored := *c
		stored.ID = m.nextID
		m.nextID++
		m.contests[stored.ID] = &stored
	}
	return nil
}

func (m *mockContestRepo) findByExternalID(externalID string) *model.Contest {
	for _, c := range m.contests {
		if c.ExternalID == externalID {
			return c
		}
	}
	return nil
}

func (m *mockContestRepo) DeleteEndedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.cutoffs = append(m.cutoffs, cutoff)
	var deleted int64
	for id, c := range m.contests {
		if c.EndTime.Before(cutoff) {
			delete(m.contests, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockContestRepo) ListWindow(_ context.Context, now, until time.Time) ([]*model.Contest, error) {
	var out []*model.Contest
	for _, c := range m.contests {
		if c.EndTime.After(now) && !c.StartTime.After(until) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContestRepo) ListUpcomingByPlatforms(_ context.Context, now time.Time, platforms []model.Platform) ([]*model.Contest, error) {
	var out []*model.Contest
	for _, c := range m.contests {
		if c.StartTime.Before(now) {
			continue
		}
		for _, p := range platforms {
			if c.Platform == p {
				out = append(out, c)
				break
			}
		}
	}
	return out, nil
}

func (m *mockContestRepo) GetByID(_ context.Context, id uint64) (*model.Contest, error) {
	return m.contests[id], nil
}

// ── 通知仓储 ──

type notificationKey struct {
	userID    uint64
	contestID uint64
	lead      int
}

type mockNotificationRepo struct {
	nextID      uint64
	entries     map[notificationKey]*model.Notification
	insertCalls int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{nextID: 1, entries: map[notificationKey]*model.Notification{}}
}

func (m *mockNotificationRepo) InsertIfAbsent(_ context.Context, n *model.Notification) error {
	m.insertCalls++
	key := notificationKey{n.UserID, n.ContestID, n.MinutesBefore}
	if _, ok := m.entries[key]; ok {
		return nil // 冲突无操作，与ON CONFLICT DO NOTHING语义一致
	}
	stored := *n
	stored.ID = m.nextID
	m.nextID++
	m.entries[key] = &stored
	return nil
}

func (m *mockNotificationRepo) ListDue(_ context.Context, now time.Time) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range m.entries {
		if n.Status == model.NotificationStatusPending && !n.SendTime.After(now) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id uint64) error {
	for key, n := range m.entries {
		if n.ID == id {
			delete(m.entries, key)
			return nil
		}
	}
	return nil
}

func (m *mockNotificationRepo) MarkFailed(_ context.Context, id uint64) error {
	for _, n := range m.entries {
		if n.ID == id {
			n.Status = model.NotificationStatusFailed
			return nil
		}
	}
	return nil
}

func (m *mockNotificationRepo) CountByContest(_ context.Context, contestID uint64) (int64, error) {
	var count int64
	for _, n := range m.entries {
		if n.ContestID == contestID {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) get(userID, contestID uint64, lead int) *model.Notification {
	return m.entries[notificationKey{userID, contestID, lead}]
}

// ── 日历关联仓储 ──

type linkKey struct {
	userID    uint64
	contestID uint64
}

type mockCalendarRepo struct {
	nextID uint64
	links  map[linkKey]*model.CalendarEvent
}

func newMockCalendarRepo() *mockCalendarRepo {
	return &mockCalendarRepo{nextID: 1, links: map[linkKey]*model.CalendarEvent{}}
}

func (m *mockCalendarRepo) GetLink(_ context.Context, userID, contestID uint64) (*model.CalendarEvent, error) {
	return m.links[linkKey{userID, contestID}], nil
}

func (m *mockCalendarRepo) CreateLink(_ context.Context, link *model.CalendarEvent) error {
	stored := *link
	stored.ID = m.nextID
	m.nextID++
	m.links[linkKey{link.UserID, link.ContestID}] = &stored
	return nil
}

// ── 用户仓储 ──

type mockUserRepo struct {
	users map[uint64]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[uint64]*model.User{}}
}

func (m *mockUserRepo) ListEligible(_ context.Context) ([]*model.User, error) {
	var out []*model.User
	for _, u := range m.users {
		if u.IsVerified && len(u.PlatformList()) > 0 {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uint64) (*model.User, error) {
	return m.users[id], nil
}

// ── 能力桩 ──

type calendarCall struct {
	refreshToken    string
	event           model.CalendarEventData
	existingEventID string
}

type fakeCalendarAPI struct {
	calls    []calendarCall
	returnID string
	err      error
}

func (f *fakeCalendarAPI) UpsertEvent(_ context.Context, refreshToken string, event model.CalendarEventData, existingEventID string) (string, error) {
	f.calls = append(f.calls, calendarCall{refreshToken, event, existingEventID})
	if f.err != nil {
		return "", f.err
	}
	if f.returnID != "" {
		return f.returnID, nil
	}
	return "gcal-event-1", nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeEmailSender struct {
	sent []sentMail
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, to, subject, htmlBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to, subject, htmlBody})
	return nil
}

type fakeFeed struct {
	records []*model.ContestRecord
	fetched []*model.Contest
	err     error
}

func (f *fakeFeed) GetName() string { return "fake-feed" }

func (f *fakeFeed) FetchUpcoming(_ context.Context) ([]*model.ContestRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.records != nil {
		return f.records, nil
	}
	// 直接返回占位原始记录，归一化结果由fetched给定
	out := make([]*model.ContestRecord, len(f.fetched))
	for i := range f.fetched {
		out[i] = &model.ContestRecord{}
	}
	return out, nil
}

func (f *fakeFeed) ConvertToDBModel(_ []*model.ContestRecord) ([]*model.Contest, error) {
	return f.fetched, nil
}
