package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const EngineChromium = "chromium"

// DefaultChromiumTimeout bounds one headless print.
const DefaultChromiumTimeout = 30 * time.Second

// A4 in inches, as PrintToPDF expects.
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
)

//go:embed templates/schedule.html.tmpl
var templatesFS embed.FS

var scheduleTmpl = template.Must(template.ParseFS(templatesFS, "templates/schedule.html.tmpl"))

// ChromiumRenderer prints the layout as HTML through headless Chromium.
// It needs a Chrome/Chromium binary on the host; chromedp locates it.
type ChromiumRenderer struct {
	// Timeout bounds the whole browser session. Zero means DefaultChromiumTimeout.
	Timeout time.Duration

	// ExecPath pins the browser binary. Empty lets chromedp search the usual locations.
	ExecPath string
}

func (r *ChromiumRenderer) Engine() string { return EngineChromium }

// HTML renders the layout as a standalone page.
func HTML(l Layout) ([]byte, error) {
	var buf bytes.Buffer
	if err := scheduleTmpl.Execute(&buf, l); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *ChromiumRenderer) Render(parentCtx context.Context, l Layout) ([]byte, error) {
	doc, err := HTML(l)
	if err != nil {
		return nil, err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultChromiumTimeout
	}

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(parentCtx, opts...)
	defer allocCancel()

	ctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)
	defer timeoutCancel()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(doc)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("render: chromedp run failed: %w", err)
	}
	return pdf, nil
}
