package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pavelanni/examsim/internal/bank"
	"github.com/pavelanni/examsim/internal/console"
	appI18n "github.com/pavelanni/examsim/internal/i18n"
	"github.com/pavelanni/examsim/internal/model"
	"github.com/pavelanni/examsim/internal/scorecard"
	"github.com/pavelanni/examsim/internal/session"
	"github.com/pavelanni/examsim/internal/shuffle"
	"github.com/pavelanni/examsim/internal/tags"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examsim",
		Short: "Timed multiple-choice exam simulator with cumulative scorecards",
	}

	take := takeCmd()
	root.AddCommand(take, validateCmd(), drawCmd(), packCmd(), inspectCmd())

	// Make "take" the default when no subcommand is given.
	root.RunE = take.RunE

	// Register take flags on root so bare `examsim --name ...` still works.
	root.Flags().AddFlagSet(take.Flags())

	return root
}

func addBankFlags(f *pflag.FlagSet) {
	f.StringSliceP("bank", "b", []string{"bank/questions.json"}, "Question bank files (.json, .yaml, .db); later files replace earlier ones")
	f.StringP("tags", "t", "tags.csv", "Tag reference CSV")
}

func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().String("log-format", "text", "Log format (text, json)")
}

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take a timed exam session in the terminal",
		RunE:  runTake,
	}
	f := cmd.Flags()
	addBankFlags(f)
	f.StringP("name", "u", "", "Your name, written to the scorecard")
	f.StringSliceP("categories", "c", nil, "Categories to draw from (default: all in the bank)")
	f.StringP("scorecard", "s", "", "Previous scorecard to carry cumulative scores from")
	f.StringP("out-dir", "o", ".", "Directory for exported scorecards (empty disables export)")
	f.StringP("lang", "l", "en", "Console language (en, ru)")
	f.Int64("seed", -1, "Random seed for reproducible sessions (-1 = random)")
	addLogFlags(cmd)
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a question bank against the tag reference",
		RunE:  runValidate,
	}
	addBankFlags(cmd.Flags())
	addLogFlags(cmd)
	return cmd
}

func drawCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draw",
		Short: "Preview the questions and option order a seed produces",
		RunE:  runDraw,
	}
	f := cmd.Flags()
	addBankFlags(f)
	f.StringSliceP("categories", "c", nil, "Categories to draw from (default: all in the bank)")
	f.Int64("seed", 1, "Random seed")
	addLogFlags(cmd)
	return cmd
}

func packCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack SOURCE...",
		Short: "Validate JSON/YAML banks and write them to a SQLite bank file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPack,
	}
	cmd.Flags().String("db", "bank.db", "SQLite bank file to write")
	addLogFlags(cmd)
	return cmd
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect SCORECARD",
		Short: "Print the cumulative category summary of a scorecard",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}
	addLogFlags(cmd)
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("EXAMSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examsim")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examsim")
	v.AddConfigPath("/etc/examsim")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// examConfig builds exam parameters from flags, env and config file.
func examConfig(v *viper.Viper) model.ExamConfig {
	cfg := model.DefaultExamConfig()
	if seed := v.GetInt64("seed"); seed >= 0 {
		s := uint64(seed)
		cfg.Seed = &s
	}
	return cfg
}

// loadBanks loads each bank file in order. A file that fails to load is
// reported and the previously loaded bank stays in use.
func loadBanks(paths []string) ([]model.Question, error) {
	var questions []model.Question
	var lastErr error
	for _, path := range paths {
		qs, err := bank.LoadFile(path)
		if err != nil {
			slog.Error("failed to load question bank", "path", path, "error", err)
			lastErr = err
			continue
		}
		slog.Info("loaded question bank", "path", path, "questions", len(qs))
		questions = qs
	}
	if questions == nil {
		if lastErr == nil {
			return nil, errors.New("no question bank given")
		}
		return nil, fmt.Errorf("no usable question bank: %w", lastErr)
	}
	return questions, nil
}

func loadInputs(v *viper.Viper) (*tags.Table, []model.Question, error) {
	tagTable, err := tags.LoadFile(v.GetString("tags"))
	if err != nil {
		return nil, nil, fmt.Errorf("load tags: %w", err)
	}
	questions, err := loadBanks(v.GetStringSlice("bank"))
	if err != nil {
		return nil, nil, err
	}
	return tagTable, questions, nil
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	tagTable, questions, err := loadInputs(v)
	if err != nil {
		return err
	}

	exam := session.New(tagTable, session.WithConfig(examConfig(v)))
	if err := exam.LoadBank(questions); err != nil {
		return err
	}

	if path := v.GetString("scorecard"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open scorecard: %w", err)
		}
		err = exam.ImportHistory(f)
		f.Close()
		if err != nil {
			// Not fatal: the session runs without history.
			slog.Warn("ignoring previous scorecard", "path", path, "error", err)
		}
	}

	categories := v.GetStringSlice("categories")
	if len(categories) == 0 {
		categories = exam.Categories()
	}

	ctx := appI18n.WithLanguage(context.Background(), lang)
	runner := console.NewRunner(exam, os.Stdin, os.Stdout, v.GetString("out-dir"))
	if err := runner.Run(ctx, v.GetString("name"), categories); err != nil {
		var ie *bank.InsufficientError
		if errors.As(err, &ie) {
			return fmt.Errorf("cannot start session: %w", err)
		}
		return err
	}
	return nil
}

func runValidate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	tagTable, err := tags.LoadFile(v.GetString("tags"))
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	for _, path := range v.GetStringSlice("bank") {
		qs, err := bank.LoadFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Printf("%s: %d questions, %d tags known\n", path, len(qs), tagTable.Len())
		for _, name := range tagTable.AllNames(qs) {
			id, _ := tagTable.IDFor(name)
			n := len(bank.FilterByTags(qs, []int{id}))
			fmt.Printf("  %-40s %d\n", name, n)
		}
	}
	return nil
}

func runDraw(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	tagTable, questions, err := loadInputs(v)
	if err != nil {
		return err
	}
	categories := v.GetStringSlice("categories")
	if len(categories) == 0 {
		categories = tagTable.AllNames(questions)
	}

	cfg := examConfig(v)
	if cfg.Seed == nil {
		return errors.New("draw needs a non-negative --seed")
	}
	rng := shuffle.NewRand(*cfg.Seed)
	pool := bank.FilterByTags(questions, tagTable.IDsFor(categories))
	drawn, err := bank.Draw(pool, model.QuestionsPerSession, rng)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tORDER\tCATEGORIES")
	for i, q := range shuffle.Questions(drawn, rng) {
		_, mapping := shuffle.Options(q, rng)
		order := make([]string, len(mapping))
		for j, opt := range mapping {
			order[j] = string(opt)
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", i+1, q.ID, strings.Join(order, ""), strings.Join(tagTable.NamesFor(q), ", "))
	}
	return tw.Flush()
}

func runPack(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	dst := v.GetString("db")
	for _, src := range args {
		res, err := bank.Pack(src, dst)
		if err != nil {
			return fmt.Errorf("pack %s: %w", src, err)
		}
		if res.Skipped {
			fmt.Printf("%s: unchanged, skipped\n", src)
			continue
		}
		fmt.Printf("%s: %d questions written to %s\n", src, res.Questions, dst)
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)

	h, err := scorecard.ImportFile(args[0])
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tPOINTS\tMAX\tPCT")
	for _, c := range h.Categories {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f%%\n", c.Name, c.CumulativePoints, c.CumulativeMax, model.Percent(c.CumulativePoints, c.CumulativeMax))
	}
	return tw.Flush()
}
