package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"shoplist/internal/cli"
	"shoplist/internal/config"
	"shoplist/internal/core"
	applog "shoplist/internal/log"
	"shoplist/internal/render"
	"shoplist/internal/store"
)

// app carries what every command needs. Tests inject a store and config;
// otherwise they are built from the environment before the command runs.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	verbose bool
	cfg     *config.Config
	logger  *applog.Logger
	store   *store.Store
	cleanup func() error
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "shoplist",
		Short: "Personal shopping list with running totals",
		Long: `shoplist keeps a priced, categorized shopping list.

Items are referenced either by the number shown by "shoplist ls" or by id.
State is saved after every change to the configured backend
(DATA_BACKEND=memory|file|sqlite).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newAddCmd(a),
		newListCmd(a),
		newEditCmd(a),
		newRemoveCmd(a),
		newToggleCmd(a),
		newClearCmd(a),
		newCategoryCmd(a),
		newFilterCmd(a),
		newThemeCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newServeCmd(a),
	)
	return root
}

// open wires config, logging and the store unless a store was injected.
func (a *app) open(cmd *cobra.Command) error {
	if a.store != nil {
		if a.logger == nil {
			a.logger = applog.Discard()
		}
		return nil
	}

	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	switch {
	case a.verbose:
		level = "debug"
	case cmd.Name() == "serve":
		level = cfg.LogLevel
	}
	logger, err := cli.SetupLogger(level, a.errOut)
	if err != nil {
		return err
	}
	a.logger = logger

	st, cleanup, err := cli.OpenStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	a.store, a.cleanup = st, cleanup
	return nil
}

func (a *app) close() error {
	if a.cleanup == nil {
		return nil
	}
	err := a.cleanup()
	a.cleanup = nil
	return err
}

func (a *app) render() *render.Renderer {
	return render.New(a.out, a.store.DarkMode())
}

// resolveItem accepts a 1-based number from the filtered view or an item id.
func (a *app) resolveItem(ref string) (core.Item, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		view := a.store.FilteredItems()
		if n < 1 || n > len(view) {
			return core.Item{}, fmt.Errorf("no item number %d (list has %d)", n, len(view))
		}
		return view[n-1], nil
	}
	for _, it := range a.store.Items() {
		if it.ID == ref {
			return it, nil
		}
	}
	return core.Item{}, fmt.Errorf("no item with id %q", ref)
}

// confirm asks a yes/no question on the app's input. Anything but y/yes is no.
func (a *app) confirm(question string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", question)
	answer, _ := bufio.NewReader(a.in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

// fieldErrorsText flattens validation messages in a stable order.
func fieldErrorsText(fe core.FieldErrors) string {
	var lines []string
	for _, f := range []string{core.FieldName, core.FieldPrice, core.FieldCategory} {
		if msg, ok := fe[f]; ok {
			lines = append(lines, msg)
		}
	}
	return strings.Join(lines, "; ")
}
