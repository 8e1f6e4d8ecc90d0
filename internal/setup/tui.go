// Package setup holds the interactive configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal/storage/kvstore"
)

// DefaultOutput file the wizard writes.
const DefaultOutput = "config.gen.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers raw wizard input.
type Answers struct {
	Storage      string
	Provider     string
	BackendURL   string
	PollInterval string
	CapitalUSD   string
	CapitalKRW   string
	Watchlist    string
	HTTPAddr     string
}

// DefaultAnswers prefilled wizard values.
func DefaultAnswers() Answers {
	def := config.Default()
	return Answers{
		Storage:      string(def.Storage),
		Provider:     def.QuoteProvider,
		PollInterval: def.PollInterval.String(),
		CapitalUSD:   def.InitialCapital.USD.String(),
		CapitalKRW:   def.InitialCapital.KRW.String(),
		Watchlist:    strings.Join(def.Watchlist, ","),
		HTTPAddr:     def.HTTPAddr,
	}
}

// Build turns answers into a validated config.
func (a Answers) Build() (config.Config, error) {
	cfg := config.Default()
	cfg.Storage = kvstore.Kind(a.Storage)
	cfg.QuoteProvider = a.Provider
	cfg.BackendURL = strings.TrimSpace(a.BackendURL)
	if a.HTTPAddr != "" {
		cfg.HTTPAddr = a.HTTPAddr
	}

	interval, err := time.ParseDuration(a.PollInterval)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "poll interval")
	}
	cfg.PollInterval = interval

	if cfg.InitialCapital.USD, err = parseCapital(a.CapitalUSD); err != nil {
		return config.Config{}, errors.Wrap(err, "USD capital")
	}
	if cfg.InitialCapital.KRW, err = parseCapital(a.CapitalKRW); err != nil {
		return config.Config{}, errors.Wrap(err, "KRW capital")
	}

	if symbols := splitSymbols(a.Watchlist); len(symbols) > 0 {
		cfg.Watchlist = symbols
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Write stores cfg as YAML at path.
func Write(path string, cfg config.Config) error {
	data, err := yaml.Marshal(cfg.ToTmp())
	if err != nil {
		return errors.Wrap(err, "failed to generate yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	return nil
}

// RunTUI launches the terminal configuration wizard and writes the result to output.
func RunTUI(output string) error {
	if output == "" {
		output = DefaultOutput
	}

	a := DefaultAnswers()
	var confirm bool

	step := func(title string) {
		fmt.Print("\033[H\033[2J")
		fmt.Println(headerStyle.Render("PAPERTRADE CONFIG WIZARD"))
		fmt.Println(stepStyle.Render(title))
	}

	step("STEP 1: STORAGE")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Where the ledger and quote cache are kept.\n"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("State storage").
				Options(
					huh.NewOption("JSON files", string(kvstore.KindFile)),
					huh.NewOption("SQLite", string(kvstore.KindSQLite)),
					huh.NewOption("In memory (nothing survives a restart)", string(kvstore.KindMemory)),
				).
				Value(&a.Storage),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 2: QUOTES")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Quote provider").
				Options(
					huh.NewOption("Offline catalog", config.ProviderStatic),
					huh.NewOption("Yahoo Finance", config.ProviderYahoo),
					huh.NewOption("Quote backend", config.ProviderBackend),
				).
				Value(&a.Provider),
			huh.NewInput().
				Title("Poll interval").
				Description("Duration string (e.g. 30s, 1m, 3m)").
				Value(&a.PollInterval).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil {
						return err
					}
					if d <= 0 {
						return errors.New("must be positive")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	if a.Provider == config.ProviderBackend {
		step("STEP 2a: BACKEND")
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Backend URL").
					Description("Base URL serving /api/quote and /api/search").
					Value(&a.BackendURL).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("backend url cannot be empty")
						}
						return nil
					}),
			),
		).Run()
		if err != nil {
			return err
		}
	}

	step("STEP 3: CAPITAL")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Initial USD cash").
				Value(&a.CapitalUSD).
				Validate(validateCapital),
			huh.NewInput().
				Title("Initial KRW cash").
				Value(&a.CapitalKRW).
				Validate(validateCapital),
		),
	).Run()
	if err != nil {
		return err
	}

	step("STEP 4: WATCHLIST")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Symbols to watch").
				Description("Comma separated (e.g. AAPL,NVDA,005930.KS)").
				Value(&a.Watchlist),
			huh.NewInput().
				Title("HTTP address").
				Value(&a.HTTPAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	cfg, err := a.Build()
	if err != nil {
		return err
	}

	step("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Storage: %s\nProvider: %s\nInterval: %s\nCapital: %s USD / %s KRW\nWatchlist: %s\n",
		cfg.Storage, cfg.QuoteProvider, cfg.PollInterval,
		cfg.InitialCapital.USD.String(), cfg.InitialCapital.KRW.String(),
		strings.Join(cfg.Watchlist, ", "),
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return errors.New("setup cancelled by user")
	}

	if err := Write(output, cfg); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", output)))
	return nil
}

func parseCapital(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, errors.New("must be a valid number")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("must not be negative")
	}
	return d, nil
}

func validateCapital(s string) error {
	_, err := parseCapital(s)
	return err
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
