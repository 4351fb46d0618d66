package clist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hacktrack/internal/config"
	"hacktrack/internal/interfaces"
	"hacktrack/internal/model"
	"hacktrack/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// clist.by的时间字段不带时区后缀，按UTC显式解析
const clistTimeLayout = time.RFC3339

type Adapter struct {
	cfg        *config.ClistConfig
	httpClient *http.Client
	logger     *logrus.Logger
	now        func() time.Time
}

// NewAdapter 创建clist.by数据源适配器
func NewAdapter(cfg *config.ClistConfig, logger *logrus.Logger) interfaces.ContestFeed {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg.Timeout, cfg.Proxy, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// GetName ========== 实现ContestFeed接口 ==========
func (a *Adapter) GetName() string {
	return "clist.by"
}

// FetchUpcoming 拉取受支持平台即将开始的竞赛窗口
func (a *Adapter) FetchUpcoming(ctx context.Context) ([]*model.ContestRecord, error) {
	if a.cfg.Username == "" || a.cfg.APIKey == "" {
		return nil, fmt.Errorf("clist.by凭证未配置")
	}

	// 1. 组装查询参数（upcoming过滤 + start__gte双保险）
	params := url.Values{}
	params.Set("upcoming", "true")
	params.Set("start__gte", a.now().UTC().Format(clistTimeLayout))
	params.Set("resource__in", strings.Join(model.SupportedResources(), ","))
	params.Set("order_by", "start")
	params.Set("limit", strconv.Itoa(a.cfg.Limit))

	reqURL := fmt.Sprintf("%s?%s", strings.TrimRight(a.cfg.BaseURL, "?"), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构造clist.by请求失败: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("ApiKey %s:%s", a.cfg.Username, a.cfg.APIKey))

	// 2. 请求并解析响应
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求clist.by失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("clist.by返回异常状态码: %d", resp.StatusCode)
	}

	var body struct {
		Objects []*model.ContestRecord `json:"objects"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("解析clist.by响应失败: %w", err)
	}
	return body.Objects, nil
}

// ConvertToDBModel 归一化为数据库模型：未知平台/非法时间的单条记录跳过，不影响批次
func (a *Adapter) ConvertToDBModel(raw []*model.ContestRecord) ([]*model.Contest, error) {
	contests := make([]*model.Contest, 0, len(raw))
	for _, r := range raw {
		platform, ok := model.PlatformFromResource(r.Resource)
		if !ok {
			a.logger.Warnf("跳过未知平台resource: %s", r.Resource)
			continue
		}

		startTime, err := parseUTC(r.Start)
		if err != nil {
			a.logger.WithError(err).Warnf("跳过开始时间非法的竞赛: %s", r.Event)
			continue
		}
		endTime, err := parseUTC(r.End)
		if err != nil {
			a.logger.WithError(err).Warnf("跳过结束时间非法的竞赛: %s", r.Event)
			continue
		}
		if !endTime.After(startTime) {
			a.logger.Warnf("跳过结束时间早于开始时间的竞赛: %s", r.Event)
			continue
		}

		contests = append(contests, &model.Contest{
			ExternalID:      strconv.FormatInt(r.ID, 10),
			Name:            r.Event,
			Platform:        platform,
			StartTime:       startTime,
			EndTime:         endTime,
			DurationSeconds: r.Duration,
			URL:             r.Href,
		})
	}
	return contests, nil
}

// parseUTC clist.by时间无时区后缀，补Z后按UTC解析
func parseUTC(s string) (time.Time, error) {
	if !strings.HasSuffix(s, "Z") {
		s += "Z"
	}
	return time.Parse(clistTimeLayout, s)
}
