package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"xconsole/internal/catalog"
	"xconsole/internal/config"
	"xconsole/internal/console"
	"xconsole/internal/highlight"
	"xconsole/internal/httpclient"
	"xconsole/internal/logging"
	"xconsole/internal/model"
	"xconsole/internal/ui"
	"xconsole/internal/watch"
	"xconsole/internal/web"
)

// env is what every command needs: resolved settings, the catalog and a
// dispatcher bound to the base URL.
type env struct {
	cfg     config.Config
	catalog *catalog.Catalog
	client  *httpclient.Dispatcher
	closer  io.Closer
}

func (e *env) Close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

func setup(ctx context.Context, cmd *cli.Command, terminal bool) (*env, error) {
	cfg := configFrom(cmd)
	if err := cfg.Validate(); err != nil {
		return nil, cli.Exit(err, 2)
	}

	closer, err := logging.Setup(logging.Options{
		Terminal: terminal,
		Debug:    cfg.Debug,
		File:     cfg.LogFile,
		Level:    cfg.LogLevel,
	})
	if err != nil {
		return nil, cli.Exit(err, 2)
	}

	cat, err := catalog.Open(ctx, cfg.Spec())
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("catalog: %w", err)
	}

	baseURL := cfg.ResolveBaseURL(cat.Servers)
	log.WithFields(log.Fields{
		"base_url":   baseURL,
		"operations": len(cat.Operations()),
	}).Debug("xconsole: catalog loaded")

	return &env{
		cfg:     cfg,
		catalog: cat,
		client:  httpclient.New(baseURL, cfg.Timeout),
		closer:  closer,
	}, nil
}

func runTUI(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() > 0 {
		return cli.Exit(fmt.Sprintf("unknown command %q", cmd.Args().First()), 2)
	}
	e, err := setup(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	app := ui.NewApp(os.Stdin, os.Stdout, console.New(e.catalog, e.client), ui.Options{
		BaseURL: e.client.BaseURL(),
		Timeout: e.cfg.Timeout,
		Editor:  config.Editor(),
	})
	return app.Run()
}

func runOps(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	for _, g := range e.catalog.Groups() {
		fmt.Println(g.Tag)
		for _, op := range g.Operations {
			fmt.Printf("  %-7s %-34s %s\n", strings.ToUpper(op.Method), op.Path, op.ID)
		}
	}
	return nil
}

func runDescribe(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return cli.Exit("usage: xconsole describe <operation-id>", 2)
	}
	e, err := setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	op, err := e.catalog.Lookup(cmd.Args().First())
	if err != nil {
		return err
	}
	md, err := describeMarkdown(e.catalog, op)
	if err != nil {
		return err
	}
	renderMarkdown(os.Stdout, md)
	return nil
}

func runCall(ctx context.Context, cmd *cli.Command) error {
	c, e, err := prepare(ctx, cmd, "call")
	if err != nil {
		return err
	}
	defer e.Close()

	res, _ := c.Dispatch(ctx)
	fmt.Fprintf(os.Stderr, "%d %s\n", res.Status, res.StatusText())
	if res.Error != "" {
		fmt.Fprintln(os.Stderr, res.Error)
	}
	printValue(os.Stdout, res.Data)
	if !res.OK() {
		return cli.Exit("", 1)
	}
	return nil
}

func runWatch(ctx context.Context, cmd *cli.Command) error {
	c, e, err := prepare(ctx, cmd, "watch")
	if err != nil {
		return err
	}
	defer e.Close()

	req, err := c.Request()
	if err != nil {
		return cli.Exit(err, 2)
	}
	p := watch.New(e.client, req, e.cfg.PollInterval)
	return p.Run(ctx, func(u watch.Update) {
		fmt.Printf("%s  %d items (+%d -%d ~%d)\n", time.Now().Format(time.TimeOnly),
			len(u.Items), len(u.Diff.Added), len(u.Diff.Removed), len(u.Diff.Updated))
		for _, item := range u.Items {
			fmt.Printf("  %s  %s\n", watch.ItemKey(item), strings.Join(nonEmpty(watch.TrackedFields(item)), " "))
		}
	})
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	e, err := setup(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer e.Close()

	s := web.New(e.catalog, e.client, web.Options{
		PollInterval:  e.cfg.PollInterval,
		OriginAllowed: e.cfg.OriginAllowed,
	})
	return s.ListenAndServe(ctx, e.cfg.Listen)
}

// prepare selects the operation named by the first argument and fills its
// form from the name=value arguments that follow.
func prepare(ctx context.Context, cmd *cli.Command, name string) (*console.Console, *env, error) {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return nil, nil, cli.Exit(fmt.Sprintf("usage: xconsole %s <operation-id> [name=value ...]", name), 2)
	}
	state, err := parseAssignments(args[1:])
	if err != nil {
		return nil, nil, cli.Exit(err, 2)
	}

	e, err := setup(ctx, cmd, false)
	if err != nil {
		return nil, nil, err
	}
	c := console.New(e.catalog, e.client)
	if err := c.Select(args[0]); err != nil {
		e.Close()
		return nil, nil, err
	}
	names := map[string]bool{}
	for _, f := range c.Fields() {
		names[f.Name] = true
	}
	for k, v := range state {
		if !names[k] {
			e.Close()
			return nil, nil, cli.Exit(fmt.Sprintf("operation %s has no field %q", args[0], k), 2)
		}
		c.Set(k, v)
	}
	return c, e, nil
}

func parseAssignments(args []string) (model.FormState, error) {
	state := model.FormState{}
	for _, a := range args {
		name, value, ok := strings.Cut(a, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("expected name=value, got %q", a)
		}
		state[name] = value
	}
	return state, nil
}

func printValue(f *os.File, v any) {
	if isTerminal(f) {
		fmt.Fprintln(f, highlight.ANSIValue(v))
		return
	}
	fmt.Fprintln(f, highlight.Marshal(v))
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd())
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
