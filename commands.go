package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mcncl/skjson/internal/config"
	"github.com/mcncl/skjson/internal/errors"
	"github.com/mcncl/skjson/internal/formatter"
	"github.com/mcncl/skjson/internal/models"
	"github.com/mcncl/skjson/internal/mutate"
	"github.com/mcncl/skjson/internal/parser"
	"github.com/mcncl/skjson/internal/request"
)

// documentName is the cache name used for the file a command works on
const documentName = "document"

// GetCmd prints a node of a JSON file
type GetCmd struct {
	File    string `arg:"" help:"JSON file to read." type:"existingfile"`
	Path    string `arg:"" optional:"" help:"Path to the node, joined with the configured delimiter."`
	Compact bool   `help:"Print compact JSON." short:"C"`
}

// Run executes the get command
func (c *GetCmd) Run(ctx *Context) error {
	if err := ctx.Bridge.LoadHotCache(documentName, c.File); err != nil {
		return err
	}
	v := ctx.Bridge.GetHotCached(documentName)
	if c.Path != "" {
		v = ctx.Bridge.GetPath(v, c.Path)
	}
	return printValue(ctx, v, c.Compact)
}

// SetCmd writes a node of a JSON file
type SetCmd struct {
	File  string `arg:"" help:"JSON file to edit." type:"existingfile"`
	Path  string `arg:"" help:"Path to the node, joined with the configured delimiter."`
	Value string `arg:"" help:"New value as JSON. Text that is not JSON is stored as a string."`
}

// Run executes the set command
func (c *SetCmd) Run(ctx *Context) error {
	if err := ctx.Bridge.LoadHotCache(documentName, c.File); err != nil {
		return err
	}
	if err := ctx.Bridge.SetHotCached(documentName, c.Path, parseLiteral(c.Value)); err != nil {
		return err
	}
	return printValue(ctx, ctx.Bridge.GetHotCached(documentName), false)
}

// ChangeCmd renames keys or replaces values in a JSON file
type ChangeCmd struct {
	File string `arg:"" help:"JSON file to edit." type:"existingfile"`
	Mode string `arg:"" help:"What to change: key or value." enum:"key,keys,value,values"`
	From string `arg:"" help:"Key or JSON value to look for."`
	To   string `arg:"" help:"Replacement key or JSON value."`
}

// Run executes the change command
func (c *ChangeCmd) Run(ctx *Context) error {
	mode, err := mutate.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	if err := ctx.Bridge.LoadHotCache(documentName, c.File); err != nil {
		return err
	}

	from, to := models.String(c.From), models.String(c.To)
	if mode == mutate.ModeValue {
		from, to = parseLiteral(c.From), parseLiteral(c.To)
	}
	if err := ctx.Bridge.ChangeHotCached(documentName, from, to, mode); err != nil {
		return err
	}
	return printValue(ctx, ctx.Bridge.GetHotCached(documentName), false)
}

// QueryCmd evaluates a JSONPath expression
type QueryCmd struct {
	File string `arg:"" help:"JSON file to read." type:"existingfile"`
	Expr string `arg:"" help:"JSONPath expression, e.g. $.items[*].id"`
}

// Run executes the query command
func (c *QueryCmd) Run(ctx *Context) error {
	if err := ctx.Bridge.LoadHotCache(documentName, c.File); err != nil {
		return err
	}
	for _, v := range ctx.Bridge.Query(ctx.Bridge.GetHotCached(documentName), c.Expr) {
		if _, err := fmt.Fprintln(ctx.Out, formatter.Compact(v)); err != nil {
			return errors.NewIOError("failed to write output", err)
		}
	}
	return nil
}

// RequestCmd sends a single HTTP request
type RequestCmd struct {
	Method  string   `arg:"" help:"Request method: GET, POST, PUT, DELETE, HEAD, PATCH or MOCK."`
	URL     string   `arg:"" help:"Request URL."`
	Body    string   `help:"JSON content sent with POST, PUT and PATCH." short:"b"`
	Header  []string `help:"Header as name=value. May be repeated." short:"H" sep:"none"`
	Attach  []string `help:"File to attach. A leading '*' searches the attachment root." short:"a" sep:"none"`
	Lenient bool     `help:"Remove trailing commas before parsing JSON." short:"l"`
	Raw     bool     `help:"Print the raw body of responses outside the parsed status range."`
	Status  bool     `help:"Print the status code before the body." short:"s"`
}

// Run executes the request command
func (c *RequestCmd) Run(ctx *Context) error {
	w, err := ctx.Bridge.HTTPRequest(c.Method, c.URL)
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if c.Body != "" {
		content, err := c.parseBody()
		if err != nil {
			return err
		}
		if err := w.SetContent(content); err != nil {
			return err
		}
	}
	for _, h := range c.Header {
		name, value, ok := strings.Cut(h, "=")
		if !ok {
			return errors.NewHTTPError(fmt.Sprintf("header '%s' is not in name=value form", h), errors.ErrHTTP)
		}
		if err := w.AddHeader(strings.TrimSpace(name), value); err != nil {
			return err
		}
	}
	for _, a := range c.Attach {
		if err := w.AddAttachment(a); err != nil {
			return err
		}
	}

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	resp := ctx.Bridge.Send(sigCtx, w, c.Lenient)
	if resp == nil {
		return errors.NewHTTPError(fmt.Sprintf("%s request to '%s' failed", strings.ToUpper(c.Method), c.URL), errors.ErrHTTP)
	}

	if c.Status {
		if _, err := fmt.Fprintf(ctx.Out, "%d\n", resp.StatusCode()); err != nil {
			return errors.NewIOError("failed to write output", err)
		}
	}
	body := resp.Body(c.Raw)
	switch body.Kind {
	case request.BodyRaw:
		_, err = fmt.Fprintln(ctx.Out, body.Raw)
	case request.BodyJSON:
		return printValue(ctx, body.JSON, false)
	}
	if err != nil {
		return errors.NewIOError("failed to write output", err)
	}
	return nil
}

func (c *RequestCmd) parseBody() (models.Value, error) {
	if c.Lenient {
		return parser.ParseLenient(c.Body)
	}
	return parser.ParseString(c.Body)
}

// WatchCmd keeps files cached and reloads them on change
type WatchCmd struct {
	Files []string `arg:"" help:"JSON files to cache, each under its base name." type:"existingfile"`
}

// Run executes the watch command
func (c *WatchCmd) Run(ctx *Context) error {
	for _, file := range c.Files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		if err := ctx.Bridge.LoadHotCache(name, file); err != nil {
			return err
		}
	}

	sigCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "Watching %d file(s), press Ctrl+C to stop\n", len(c.Files))
	if err := ctx.Bridge.Watch(sigCtx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// InitConfigCmd writes the default configuration
type InitConfigCmd struct {
	Path  string `arg:"" optional:"" default:"skjson.yml" help:"Where to write the config file." type:"path"`
	Force bool   `help:"Overwrite an existing file." short:"f"`
}

// Run executes the init-config command
func (c *InitConfigCmd) Run(ctx *Context) error {
	if _, err := os.Stat(c.Path); err == nil && !c.Force {
		return errors.NewConfigError(fmt.Sprintf("'%s' already exists, use --force to overwrite", c.Path), nil)
	}
	if err := config.WriteDefault(c.Path); err != nil {
		return errors.NewConfigError("failed to write default config", err)
	}
	fmt.Fprintf(os.Stderr, "Default config written to %s\n", c.Path)
	return nil
}

// parseLiteral reads s as JSON, falling back to a string value
func parseLiteral(s string) models.Value {
	v, err := parser.ParseString(s)
	if err != nil {
		return models.String(s)
	}
	return v
}

func printValue(ctx *Context, v models.Value, compact bool) error {
	out := formatter.Pretty(v)
	if compact {
		out = formatter.Compact(v) + "\n"
	}
	if _, err := fmt.Fprint(ctx.Out, out); err != nil {
		return errors.NewIOError("failed to write output", err)
	}
	return nil
}
