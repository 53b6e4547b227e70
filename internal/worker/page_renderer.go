package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ReadySelector 是页面渲染完成后出现的标记元素，前端查看页与内置模板都会输出它。
const ReadySelector = "#greeting-render-ready"

// 预览图尺寸与 Open Graph 推荐尺寸一致。
const (
	PreviewWidth   = 1200
	PreviewHeight  = 630
	previewQuality = 80
)

// RenderTarget 二选一：URL 非空时打开该地址，否则加载 HTML。
type RenderTarget struct {
	URL  string
	HTML string
}

// Name 用于日志和指标标签。
func (t RenderTarget) Name() string {
	if t.URL != "" {
		return "frontend"
	}
	return "builtin"
}

// Renderer 把目标页面截成 JPEG。
type Renderer interface {
	Screenshot(ctx context.Context, target RenderTarget) ([]byte, error)
}

// RodRenderer 在无头 Chromium 中渲染页面，每个任务独占一个浏览器进程。
type RodRenderer struct {
	logger *slog.Logger
}

func NewRodRenderer(logger *slog.Logger) *RodRenderer {
	return &RodRenderer{logger: logger}
}

// Screenshot 实现 Renderer。
func (r *RodRenderer) Screenshot(ctx context.Context, target RenderTarget) (_ []byte, err error) {
	if target.URL == "" && target.HTML == "" {
		return nil, errors.New("render target is empty")
	}

	launch := launcher.New().
		Headless(true).
		NoSandbox(true)
	if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}
	defer launch.Cleanup()

	browserURL, err := launch.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             PreviewWidth,
		Height:            PreviewHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	if target.URL != "" {
		r.logger.Info("Worker: Navigating to greeting viewer...", slog.String("url", target.URL))
		if err := page.Timeout(30 * time.Second).Navigate(target.URL); err != nil {
			return nil, fmt.Errorf("navigate: %w", err)
		}
	} else if err := page.SetDocumentContent(target.HTML); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}

	if err := page.Timeout(30 * time.Second).WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	r.logger.Info("Worker: Waiting for render signal (" + ReadySelector + ")...")
	if _, err := page.Timeout(30 * time.Second).Element(ReadySelector); err != nil {
		return nil, fmt.Errorf("wait render signal: %w", err)
	}

	// 额外等待 WebFont 就绪，避免回退字体导致排版差异
	if _, evalErr := page.Timeout(5 * time.Second).Eval(`() => {
	  if (document && document.fonts && document.fonts.ready) {
	    return Promise.race([
	      document.fonts.ready.then(() => true),
	      new Promise((resolve) => setTimeout(() => resolve(true), 3000))
	    ]);
	  }
	  return true;
	}`); evalErr != nil {
		r.logger.Warn("Worker: document.fonts.ready wait failed, continue", slog.Any("error", evalErr))
	}

	if err := page.WaitIdle(2 * time.Second); err != nil {
		r.logger.Warn("Worker: wait idle failed, continue", slog.Any("error", err))
	}

	return captureCard(page, previewQuality)
}

// captureCard 优先截取卡片元素，找不到时截取整个视口。
func captureCard(page *rod.Page, quality int) ([]byte, error) {
	element, err := page.Timeout(3 * time.Second).Element("#greeting-card")
	if err == nil {
		if data, shotErr := element.Screenshot(proto.PageCaptureScreenshotFormatJpeg, quality); shotErr == nil {
			return data, nil
		}
	}

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: &quality,
	})
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	return data, nil
}
