package googlecal

import (
	"context"
	"fmt"
	"time"

	"hacktrack/internal/config"
	"hacktrack/internal/interfaces"
	"hacktrack/internal/model"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Adapter struct {
	cfg    *config.GoogleConfig
	logger *logrus.Logger
}

// NewAdapter 创建Google日历适配器（每用户持有独立refresh token）
func NewAdapter(cfg *config.GoogleConfig, logger *logrus.Logger) interfaces.CalendarAPI {
	return &Adapter{cfg: cfg, logger: logger}
}

// UpsertEvent existingEventID非空走update，否则insert；返回Google事件ID
func (a *Adapter) UpsertEvent(ctx context.Context, refreshToken string, data model.CalendarEventData, existingEventID string) (string, error) {
	if refreshToken == "" {
		return "", fmt.Errorf("用户refresh token为空")
	}

	svc, err := a.newCalendarService(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("创建日历客户端失败: %w", err)
	}

	event := &calendar.Event{
		Summary:     fmt.Sprintf("HackTrack: %s", data.Name),
		Description: fmt.Sprintf("Contest Platform Link: %s", data.URL),
		Start: &calendar.EventDateTime{
			DateTime: data.StartTime.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: data.EndTime.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: 30},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	var result *calendar.Event
	if existingEventID != "" {
		result, err = svc.Events.Update("primary", existingEventID, event).Context(ctx).Do()
	} else {
		result, err = svc.Events.Insert("primary", event).Context(ctx).Do()
	}
	if err != nil {
		return "", fmt.Errorf("日历事件upsert失败: %w", err)
	}

	a.logger.WithFields(logrus.Fields{
		"event_id": result.Id,
		"updated":  existingEventID != "",
	}).Info("日历事件同步成功")
	return result.Id, nil
}

// newCalendarService 用用户的refresh token构造日历客户端
func (a *Adapter) newCalendarService(ctx context.Context, refreshToken string) (*calendar.Service, error) {
	oauthCfg := &oauth2.Config{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		RedirectURL:  a.cfg.RedirectURI,
		Endpoint:     google.Endpoint,
		Scopes:       []string{calendar.CalendarEventsScope},
	}
	tokenSource := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	return calendar.NewService(ctx, option.WithTokenSource(tokenSource))
}
