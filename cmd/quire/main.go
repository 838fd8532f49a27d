// Command quire paginates plain text documents and manages the editor
// settings.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/quire/internal/app"
	"github.com/dshills/quire/internal/config"
	"github.com/dshills/quire/internal/engine/document"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Globals are the flags shared by every command.
type Globals struct {
	Settings string `name:"settings" short:"s" help:"Settings file (.toml, .yaml, .json or .db)" type:"path" env:"QUIRE_SETTINGS"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error); overrides the settings"`

	out io.Writer
}

// open starts the application with the global flags applied.
func (g *Globals) open(opts app.Options) (*app.Application, error) {
	opts.SettingsPath = g.Settings
	opts.LogLevel = g.LogLevel
	return app.New(opts)
}

func (g *Globals) stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Paginate PaginateCmd   `cmd:"" help:"Lay out a plain text file and print a page report"`
	Settings SettingsGroup `cmd:"" help:"Show or change the settings"`
	Version  VersionCmd    `cmd:"" help:"Print version information"`
}

// PaginateCmd lays out a text file.
type PaginateCmd struct {
	File     string `arg:"" help:"Plain text file; paragraphs are separated by blank lines" type:"existingfile"`
	Measurer string `help:"Measurement surface (fixed, opentype, canvas); defaults to the settings"`
	Text     bool   `help:"Print the text of every page"`
}

func (c *PaginateCmd) Run(g *Globals) error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return app.NewOperationError("read", c.File, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return app.NewOperationError("paginate", c.File, app.ErrNoInput)
	}

	timer := app.StartTimer()
	a, err := g.open(app.Options{Text: string(data), Measurer: c.Measurer})
	if err != nil {
		return err
	}
	defer a.Close()

	pages, err := a.Engine().Pages()
	if err != nil {
		return app.NewOperationError("paginate", c.File, err)
	}
	elapsed := timer.Elapsed()

	out := g.stdout()
	fmt.Fprintf(out, "%s: %d page(s), measurer %s, %.1fms\n", c.File, len(pages), a.Measurer(), float64(elapsed.Microseconds())/1000)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PAGE\tBLOCKS\tHEIGHT\tCONTENT\tSTART")
	for i, p := range pages {
		text := a.Engine().PageText(p.ID)
		fmt.Fprintf(tw, "%d\t%d\t%.1f\t%.1f\t%s\n", i+1, len(p.Blocks), p.Height, p.Geometry.ContentHeight(), excerpt(text, 32))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c.Text {
		for i, p := range pages {
			fmt.Fprintf(out, "\n--- page %d ---\n%s\n", i+1, a.Engine().PageText(p.ID))
		}
	}
	return nil
}

// excerpt returns the first n runes of the first line of s.
func excerpt(s string, n int) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	r := []rune(s)
	if len(r) <= n {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%q...", string(r[:n]))
}

// SettingsGroup contains the settings commands.
type SettingsGroup struct {
	Show    SettingsShowCmd    `cmd:"" help:"Print the effective settings"`
	Path    SettingsPathCmd    `cmd:"" help:"Print the settings location"`
	Margins SettingsMarginsCmd `cmd:"" help:"Set the default page margins in CSS pixels"`
	Page    SettingsPageCmd    `cmd:"" help:"Set the default page size in CSS pixels"`
}

// SettingsShowCmd prints the effective settings.
type SettingsShowCmd struct {
	Format string `help:"Output format" enum:"toml,yaml,json" default:"toml"`
}

func (c *SettingsShowCmd) Run(g *Globals) error {
	a, err := g.open(app.Options{Measurer: "fixed"})
	if err != nil {
		return err
	}
	defer a.Close()
	return encodeSettings(g.stdout(), c.Format, a.Settings())
}

func encodeSettings(w io.Writer, format string, s config.Settings) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return toml.NewEncoder(w).Encode(s)
	}
}

// SettingsPathCmd prints where the settings are stored.
type SettingsPathCmd struct{}

func (c *SettingsPathCmd) Run(g *Globals) error {
	path := g.Settings
	if path == "" {
		path = config.DefaultPath()
	}
	fmt.Fprintln(g.stdout(), path)
	return nil
}

// SettingsMarginsCmd sets the default page margins.
type SettingsMarginsCmd struct {
	Top    float64 `arg:"" help:"Top margin"`
	Right  float64 `arg:"" help:"Right margin"`
	Bottom float64 `arg:"" help:"Bottom margin"`
	Left   float64 `arg:"" help:"Left margin"`
}

func (c *SettingsMarginsCmd) Run(g *Globals) error {
	m := document.Margins{Top: c.Top, Right: c.Right, Bottom: c.Bottom, Left: c.Left}
	return updateSettings(g, func(s *config.Settings) {
		s.Page.Margins = m
	})
}

// SettingsPageCmd sets the default page size.
type SettingsPageCmd struct {
	Width       float64 `arg:"" help:"Page width"`
	Height      float64 `arg:"" help:"Page height"`
	Orientation string  `help:"Page orientation" enum:"portrait,landscape" default:"portrait"`
}

func (c *SettingsPageCmd) Run(g *Globals) error {
	return updateSettings(g, func(s *config.Settings) {
		s.Page.Width = c.Width
		s.Page.Height = c.Height
		s.Page.Orientation = c.Orientation
	})
}

func updateSettings(g *Globals, fn func(*config.Settings)) error {
	a, err := g.open(app.Options{Measurer: "fixed"})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.UpdateSettings(fn); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "saved %s\n", a.SettingsPath())
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	fmt.Fprintf(g.stdout(), "quire %s\ncommit: %s\nbuilt: %s\n", version, commit, date)
	return nil
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("quire"),
		kong.Description("Paginated rich text editing engine"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
