package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/vkataja/quest-board-api/pkg/config"
	"github.com/vkataja/quest-board-api/pkg/storage"
)

const cookieFile = "cookies.json"

// RawTask is one unprocessed row lifted from the portal's homework page.
// Every field is text exactly as rendered; normalization happens later.
type RawTask struct {
	Subject     string `json:"subject"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ExternalRef string `json:"ref"`
	Assigned    string `json:"assigned"`
	Due         string `json:"due"`
}

// PortalClient drives a headless browser against the school portal. It logs
// in with the configured credentials, reusing session cookies from a previous
// run when they still work.
type PortalClient struct {
	cfg     config.PortalConfig
	session *storage.LocalStorage
	logger  *zap.Logger
	browser *rod.Browser
	cleanup func()
}

// NewPortalClient prepares a client. The browser launches lazily on Fetch.
func NewPortalClient(cfg config.PortalConfig, session *storage.LocalStorage, logger *zap.Logger) *PortalClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortalClient{cfg: cfg, session: session, logger: logger}
}

// Fetch logs into the portal and returns the raw homework and exam rows.
func (p *PortalClient) Fetch(ctx context.Context) ([]RawTask, error) {
	if err := p.start(ctx); err != nil {
		return nil, err
	}

	page, err := p.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx).Timeout(p.cfg.NavigationTimeout)

	p.restoreCookies(page)

	if err := p.open(page, "/homework"); err != nil {
		return nil, err
	}

	if p.atLoginPage(page) {
		if err := p.login(page); err != nil {
			return nil, err
		}
		if err := p.open(page, "/homework"); err != nil {
			return nil, err
		}
	}

	tasks, err := p.extract(page)
	if err != nil {
		return nil, err
	}

	if err := p.open(page, "/exams"); err != nil {
		p.logger.Warn("exam listing unavailable, continuing with homework only", zap.Error(err))
	} else {
		exams, err := p.extract(page)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, exams...)
	}

	p.persistCookies(page)
	p.logger.Info("portal fetch finished", zap.Int("rows", len(tasks)))
	return tasks, nil
}

func (p *PortalClient) open(page *rod.Page, path string) error {
	if err := page.Navigate(p.cfg.BaseURL + path); err != nil {
		return fmt.Errorf("navigate to %s: %w", path, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for %s: %w", path, err)
	}
	return nil
}

// Close shuts the browser down.
func (p *PortalClient) Close() error {
	var err error
	if p.browser != nil {
		err = p.browser.Close()
		p.browser = nil
	}
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	return err
}

func (p *PortalClient) start(ctx context.Context) error {
	if p.browser != nil {
		return nil
	}

	l := launcher.New().Headless(p.cfg.Headless)
	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	p.cleanup = l.Cleanup

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to browser: %w", err)
	}
	p.browser = browser
	return nil
}

func (p *PortalClient) atLoginPage(page *rod.Page) bool {
	has, _, err := page.Has(`input[name="password"]`)
	return err == nil && has
}

func (p *PortalClient) login(page *rod.Page) error {
	p.logger.Info("portal session expired, logging in", zap.String("username", p.cfg.Username))

	user, err := page.Element(`input[name="username"]`)
	if err != nil {
		return fmt.Errorf("find username field: %w", err)
	}
	if err := user.Input(p.cfg.Username); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}

	pass, err := page.Element(`input[name="password"]`)
	if err != nil {
		return fmt.Errorf("find password field: %w", err)
	}
	if err := pass.Input(p.cfg.Password); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	submit, err := page.Element(`button[type="submit"]`)
	if err != nil {
		return fmt.Errorf("find login button: %w", err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for login: %w", err)
	}

	if p.atLoginPage(page) {
		return fmt.Errorf("portal login rejected for %s", p.cfg.Username)
	}
	return nil
}

// extract pulls the homework table into RawTask rows. The portal renders one
// element per assignment with data attributes carrying the metadata.
func (p *PortalClient) extract(page *rod.Page) ([]RawTask, error) {
	res, err := page.Evaluate(&rod.EvalOptions{
		JS: `
		() => {
			const rows = Array.from(document.querySelectorAll('[data-homework-id], .homework-item'));
			return rows.map(el => ({
				subject: (el.dataset.subject || (el.querySelector('.subject') || {}).textContent || '').trim(),
				title: (el.dataset.title || (el.querySelector('.title') || {}).textContent || '').trim(),
				description: ((el.querySelector('.description') || {}).textContent || '').trim(),
				category: (el.dataset.category || '').trim(),
				ref: el.dataset.homeworkId || '',
				assigned: (el.dataset.assigned || (el.querySelector('.assigned') || {}).textContent || '').trim(),
				due: (el.dataset.due || (el.querySelector('.due') || {}).textContent || '').trim()
			}));
		}
		`,
		ByValue:      true,
		AwaitPromise: true,
	})
	if err != nil {
		return nil, fmt.Errorf("extract homework rows: %w", err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal homework rows: %w", err)
	}
	var tasks []RawTask
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("decode homework rows: %w", err)
	}
	return tasks, nil
}

func (p *PortalClient) restoreCookies(page *rod.Page) {
	if p.session == nil {
		return
	}
	data, err := p.session.Load(cookieFile)
	if err != nil {
		return
	}
	var cookies []*proto.NetworkCookieParam
	if err := json.Unmarshal(data, &cookies); err != nil {
		p.logger.Warn("discarding unreadable session cookies", zap.Error(err))
		_ = p.session.Delete(cookieFile)
		return
	}
	if len(cookies) > 0 {
		if err := page.SetCookies(cookies); err != nil {
			p.logger.Warn("failed to restore session cookies", zap.Error(err))
		}
	}
}

func (p *PortalClient) persistCookies(page *rod.Page) {
	if p.session == nil {
		return
	}
	res, err := proto.NetworkGetCookies{}.Call(page)
	if err != nil {
		p.logger.Warn("failed to read session cookies", zap.Error(err))
		return
	}

	params := make([]*proto.NetworkCookieParam, 0, len(res.Cookies))
	for _, c := range res.Cookies {
		params = append(params, &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		})
	}

	data, err := json.Marshal(params)
	if err != nil {
		return
	}
	if err := p.session.Save(cookieFile, data); err != nil {
		p.logger.Warn("failed to persist session cookies", zap.Error(err))
	}
	_, _ = p.session.CleanupOlderThan(30 * 24 * time.Hour)
}
