package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ensigniasec/sitenav/internal/config"
	"github.com/ensigniasec/sitenav/internal/content"
	"github.com/ensigniasec/sitenav/internal/nav"
	"github.com/ensigniasec/sitenav/internal/storage"
	"github.com/ensigniasec/sitenav/internal/tui"
)

//nolint:gochecknoglobals // Cobra requires package-level vars for flag bindings in current structure.
var (
	// Version metadata populated at build time via -ldflags.
	releaseVersion = "dev"
	commit         = "none"
	date           = "unknown"

	// Used for flags.
	configPath   string
	verbose      bool
	jsonOutput   bool
	eventLogPath string
	logFilePath  string
	logFile      io.Writer
	forceInit    bool

	classifyOffset   float64
	classifyHeight   float64
	classifyWidth    int
	classifyStrategy string
	classifyRects    string

	rootCmd = &cobra.Command{
		Use:   "sitenav",
		Short: "Preview single-page site navigation for a directory of Markdown pages.",
		Long: `sitenav renders Markdown pages in the terminal with a floating section menu. ` +
			`The active section follows the scroll position, menu navigation scrolls smoothly ` +
			`to its target, and the menu is fully keyboard operable.`,
		SilenceUsage: true,
	}
)

var errBadRects = errors.New("invalid --rects")

//nolint:gochecknoinits // Cobra command wiring performed in init in current structure.
func init() {
	// Route logs to stderr to avoid polluting stdout, especially for --json output.
	logrus.SetOutput(os.Stderr)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable detailed logging output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results in JSON format instead of rich text")
	rootCmd.PersistentFlags().
		StringVar(&configPath, "config", config.DefaultFileName, "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "Append logs to this file (kept while the previewer runs)")

	previewCmd.Flags().StringVar(&eventLogPath, "event-log", "", "Append navigation events as JSON lines to this file")

	classifyCmd.Flags().Float64Var(&classifyOffset, "offset", 0, "Scroll offset in lines")
	classifyCmd.Flags().Float64Var(&classifyHeight, "height", 24, "Viewport height in lines") //nolint:mnd // typical terminal
	classifyCmd.Flags().IntVar(&classifyWidth, "width", 80, "Layout width in columns")        //nolint:mnd // typical terminal
	classifyCmd.Flags().StringVar(&classifyStrategy, "strategy", "", "coverage or intersection (defaults to config)")
	classifyCmd.Flags().
		StringVar(&classifyRects, "rects", "", "Classify explicit sections instead of a page, as id:height[,id:height...]")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration file")

	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(pagesCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)

	stateCmd.AddCommand(stateShowCmd)
	stateCmd.AddCommand(stateResetCmd)
	rootCmd.AddCommand(stateCmd)

	// Built-in version flag: set version string and a custom template.
	rootCmd.Version = releaseVersion
	rootCmd.Annotations = map[string]string{"commit": commit, "date": date}
	rootCmd.SetVersionTemplate("{{printf \"%s %s\\ncommit: %s\\ndate: %s\\n\" .DisplayName .Version (index .Annotations \"commit\") (index .Annotations \"date\")}}")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func main() {
	Execute()
}

// setup applies logging flags and loads the configuration.
func setup() *config.Config {
	if jsonOutput && !verbose {
		logrus.SetLevel(logrus.WarnLevel)
	} else if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if logFilePath != "" {
		f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			logrus.Fatalf("Unable to open log file: %v", err)
		}
		logrus.SetOutput(f)
		logFile = f
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logrus.Fatal(err)
	}
	return cfg
}

func openStorage(cfg *config.Config) (*storage.Storage, error) {
	return storage.NewOrExistingStorage(cfg.Storage.Path)
}

// pageArg splits a PAGE argument into the site root and a page under it. A
// page outside the configured root becomes its own root.
func pageArg(cfg *config.Config, args []string) (string, string) {
	root := cfg.Content.Root
	if len(args) == 0 {
		return root, ""
	}
	arg := args[0]
	if _, err := os.Stat(arg); err != nil {
		// Not a path from here; treat it as relative to the root.
		return root, arg
	}
	absRoot, errRoot := filepath.Abs(root)
	absArg, errArg := filepath.Abs(arg)
	if errRoot == nil && errArg == nil {
		if rel, err := filepath.Rel(absRoot, absArg); err == nil && !strings.HasPrefix(rel, "..") {
			return root, filepath.ToSlash(rel)
		}
	}
	return filepath.Dir(arg), filepath.Base(arg)
}

// loadPage locates and parses the page named by args.
func loadPage(cmd *cobra.Command, cfg *config.Config, args []string) (string, *content.Page) {
	root, page := pageArg(cfg, args)
	rel, err := content.Locate(cmd.Context(), root, page, cfg.Content.Include, cfg.Content.Exclude)
	if err != nil {
		logrus.Fatal(err)
	}
	p, err := content.ParsePage(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		logrus.Fatal(err)
	}
	return rel, p
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logrus.Fatal(err)
	}
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var previewCmd = &cobra.Command{
	Use:   "preview [PAGE]",
	Short: "Open the interactive previewer. [Defaults to index.md or README.md]",
	Long: "Render a Markdown page with its section menu. Scroll with the wheel or j/k, " +
		"open the menu with m and jump with 1-9. Progress per page is remembered between runs.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		root, page := pageArg(cfg, args)
		rel, err := content.Locate(cmd.Context(), root, page, cfg.Content.Include, cfg.Content.Exclude)
		if err != nil {
			logrus.Fatal(err)
		}

		st, err := openStorage(cfg)
		if err != nil {
			logrus.Warnf("Unable to open state file, progress will not be remembered: %v", err)
			st = nil
		}

		var eventLog io.Writer
		if eventLogPath != "" {
			f, err := os.OpenFile(eventLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
			if err != nil {
				logrus.Fatalf("Unable to open event log: %v", err)
			}
			defer f.Close()
			eventLog = f
		}

		if err := tui.Run(cmd.Context(), tui.Options{
			Root:      root,
			Page:      rel,
			Config:    cfg,
			Storage:   st,
			EventLog:  eventLog,
			LogOutput: logFile,
		}); err != nil {
			logrus.Fatalf("Preview failed: %v", err)
		}
	},
}

type sectionsOutput struct {
	Page  string     `json:"page"`
	Title string     `json:"title"`
	Items []nav.Item `json:"items"`
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var sectionsCmd = &cobra.Command{
	Use:   "sections [PAGE]",
	Short: "List the navigation items of a page",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		rel, page := loadPage(cmd, cfg, args)
		nc := cfg.NavConfig(page.Items())
		if err := nc.Validate(); err != nil {
			logrus.Fatal(err)
		}
		n, err := nav.New(nc)
		if err != nil {
			logrus.Fatal(err)
		}
		defer n.Destroy()

		if jsonOutput {
			printJSON(sectionsOutput{Page: rel, Title: page.Title, Items: n.Items()})
			return
		}
		fmt.Fprintf(os.Stdout, "%s (%s)\n", page.Title, rel)
		for i, it := range n.Items() {
			fmt.Fprintf(os.Stdout, "%2d. %-24s %-10s %s\n", i+1, it.Label, it.Kind(), it.Href)
		}
	},
}

type classifyOutput struct {
	Strategy nav.Strategy       `json:"strategy"`
	Offset   float64            `json:"offset"`
	Height   float64            `json:"height"`
	Scores   []nav.SectionScore `json:"scores"`
	Active   string             `json:"active,omitempty"`
}

// parseRects reads "id:height,..." into contiguous sections starting at 0.
func parseRects(list string) ([]nav.SectionRect, error) {
	var rects []nav.SectionRect
	top := 0.0
	for _, part := range strings.Split(list, ",") {
		id, size, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: %q", errBadRects, part)
		}
		h, err := strconv.ParseFloat(size, 64)
		if err != nil || h < 0 {
			return nil, fmt.Errorf("%w: height of %q", errBadRects, id)
		}
		rects = append(rects, nav.SectionRect{Anchor: id, Top: top, Height: h})
		top += h
	}
	return rects, nil
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var classifyCmd = &cobra.Command{
	Use:   "classify [PAGE]",
	Short: "Score each section of a page for a scroll position",
	Long: "Lay the page out at --width and report which section is active when the viewport " +
		"of --height lines starts at --offset. With --rects, classify explicit section heights instead.",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		strategy := cfg.Classifier.Strategy
		if classifyStrategy != "" {
			strategy = nav.Strategy(classifyStrategy)
			if strategy != nav.StrategyCoverage && strategy != nav.StrategyIntersection {
				logrus.Fatalf("Unknown strategy %q (expected coverage or intersection)", classifyStrategy)
			}
		}

		g := nav.Geometry{ScrollOffset: classifyOffset, ViewportHeight: classifyHeight}
		if classifyRects != "" {
			rects, err := parseRects(classifyRects)
			if err != nil {
				logrus.Fatal(err)
			}
			g.Sections = rects
		} else {
			_, page := loadPage(cmd, cfg, args)
			g = content.Layout(page, classifyWidth).Geometry(int(classifyOffset), int(classifyHeight))
		}

		c := nav.NewClassifier(strategy)
		out := classifyOutput{
			Strategy: c.Strategy(),
			Offset:   g.ScrollOffset,
			Height:   g.ViewportHeight,
			Scores:   c.Score(g),
		}
		if id, ok := c.Classify(g); ok {
			out.Active = id
		}

		if jsonOutput {
			printJSON(out)
			return
		}
		for _, s := range out.Scores {
			mark := " "
			if s.Anchor == out.Active {
				mark = "*"
			}
			fmt.Fprintf(os.Stdout, "%s %-24s visible=%-8.1f score=%.3f\n", mark, s.Anchor, s.Visible, s.Score)
		}
		if out.Active == "" {
			fmt.Fprintln(os.Stdout, "No active section")
			return
		}
		fmt.Fprintf(os.Stdout, "Active: %s (%s)\n", out.Active, out.Strategy)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var pagesCmd = &cobra.Command{
	Use:   "pages [DIR]",
	Short: "List the Markdown pages under a directory. [Defaults to the configured root]",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		root := cfg.Content.Root
		if len(args) == 1 {
			root = args[0]
		}
		pages, err := content.Discover(cmd.Context(), root, cfg.Content.Include, cfg.Content.Exclude)
		if err != nil {
			logrus.Fatal(err)
		}
		if jsonOutput {
			if pages == nil {
				pages = []string{}
			}
			printJSON(pages)
			return
		}
		if len(pages) == 0 {
			fmt.Fprintf(os.Stdout, "%v under %s\n", content.ErrNoPages, root)
			return
		}
		for _, p := range pages {
			fmt.Fprintln(os.Stdout, p)
		}
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the sitenav configuration file",
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to --config",
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(configPath); err == nil && !forceInit {
			logrus.Fatalf("%s already exists (use --force to overwrite)", configPath)
		}
		if err := config.DefaultConfig().Save(configPath); err != nil {
			logrus.Fatal(err)
		}
		fmt.Fprintf(os.Stdout, "Wrote %s\n", configPath)
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration (file plus SITENAV_* overrides)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		if jsonOutput {
			printJSON(cfg)
			return
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			logrus.Fatal(err)
		}
		os.Stdout.Write(data) //nolint:errcheck // best-effort stdout
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Inspect or reset remembered per-page progress",
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var stateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show remembered pages",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		st, err := openStorage(cfg)
		if err != nil {
			logrus.Fatal(err)
		}
		if jsonOutput {
			printJSON(st.Data)
			return
		}
		names := st.PageNames()
		if len(names) == 0 {
			fmt.Fprintln(os.Stdout, "No remembered pages")
			return
		}
		for _, name := range names {
			p, _ := st.Page(name)
			kbd := ""
			if p.KeyboardMode {
				kbd = " (keyboard)"
			}
			fmt.Fprintf(os.Stdout, "%s: %s%s %s\n", name, p.ActiveItem, kbd, p.UpdatedAt.Format("2006-01-02 15:04"))
		}
	},
}

//nolint:gochecknoglobals // Cobra command is defined at package scope in current structure.
var stateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget all remembered pages",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		st, err := openStorage(cfg)
		if err != nil {
			logrus.Fatal(err)
		}
		if err := st.Reset(); err != nil {
			logrus.Fatal(err)
		}
		fmt.Fprintln(os.Stdout, "Remembered pages cleared")
	},
}
