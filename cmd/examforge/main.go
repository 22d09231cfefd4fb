package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/examforge/internal/evaluator"
	"github.com/pavelanni/examforge/internal/generator"
	"github.com/pavelanni/examforge/internal/handler"
	appI18n "github.com/pavelanni/examforge/internal/i18n"
	"github.com/pavelanni/examforge/internal/llm"
	"github.com/pavelanni/examforge/internal/llm/prompts"
	"github.com/pavelanni/examforge/internal/model"
	"github.com/pavelanni/examforge/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "examforge",
		Short: "Question bank with LLM-assisted analysis and generation",
	}

	serve := serveCmd()
	root.AddCommand(serve, analyzeCmd(), generateCmd(), importCmd(), exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `examforge --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addLogFlags(f *pflag.FlagSet) {
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func addLLMFlags(f *pflag.FlagSet) {
	f.String("llm-url", llm.DefaultBaseURL, "OpenAI-compatible API base URL")
	f.String("llm-model", string(llm.ModelLlama8B), "Model used for question analysis")
	f.Duration("llm-timeout", 60*time.Second, "Timeout for one model call")
	f.String("secrets-file", ".streamlit/secrets.toml", "Secrets file holding groq_api_key (used when GROQ_API_KEY is unset)")
	f.String("prompts-dir", "", "Directory with templates/*.txt prompt overrides (default: built-in prompts)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "examforge.db", "SQLite database path")
	addLLMFlags(f)
	f.String("llm-generate-model", string(llm.ModelLlama8B), "Model preselected for question generation")
	f.StringP("lang", "l", "en", "Default UI language (en, ru)")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /exams)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set EXAMFORGE_ADMIN_PASSWORD)")
	addLogFlags(f)
	return cmd
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Rate one question and print the analysis report",
		RunE:  runAnalyze,
	}
	f := cmd.Flags()
	f.String("course", "", "Course title")
	f.String("chapter", "", "Chapter title")
	f.String("ilos", "", "Intended learning outcomes")
	f.StringP("type", "t", string(model.TypeShortAnswer), "Question type")
	f.StringP("question", "q", "", "Question text (required)")
	f.StringSlice("option", nil, "Multiple choice option, \"A. ...\" (repeatable)")
	addLLMFlags(f)
	addLogFlags(f)
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate questions for a chapter and print them as JSON",
		RunE:  runGenerate,
	}
	f := cmd.Flags()
	f.String("db", "examforge.db", "SQLite database path")
	f.Int64("chapter-id", 0, "Chapter to generate for (required)")
	f.IntP("num", "n", generator.DefaultQuestions, "Number of questions (1-10)")
	f.StringP("difficulty", "d", generator.DifficultyMedium, "Difficulty level (easy, medium, hard, mixed)")
	f.StringSlice("types", []string{string(model.TypeMultipleChoice), string(model.TypeShortAnswer)}, "Question types")
	f.Bool("save", false, "Store the generated questions in the chapter")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLLMFlags(f)
	addLogFlags(f)
	_ = cmd.MarkFlagRequired("chapter-id")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import JSON question files into a chapter",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "examforge.db", "SQLite database path")
	f.Int64("chapter-id", 0, "Chapter to import into (required)")
	f.Bool("force", false, "Re-import files that changed since their last import")
	addLogFlags(f)
	_ = cmd.MarkFlagRequired("chapter-id")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the question bank as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "examforge.db", "SQLite database path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	addLogFlags(f)
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

	v.SetEnvPrefix("EXAMFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("examforge")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/examforge")
	v.AddConfigPath("/etc/examforge")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// newGateway builds the model gateway from the LLM flags and loads prompt
// overrides when a prompts directory is given.
func newGateway(v *viper.Viper) (*llm.Gateway, error) {
	if dir := v.GetString("prompts-dir"); dir != "" {
		if err := prompts.Load(os.DirFS(dir)); err != nil {
			return nil, fmt.Errorf("load prompts from %s: %w", dir, err)
		}
		slog.Info("loaded prompt templates", "dir", dir)
	}
	return llm.New(llm.Config{
		BaseURL: v.GetString("llm-url"),
		Timeout: v.GetDuration("llm-timeout"),
		Credentials: llm.EnvSecrets{
			SecretsFile: v.GetString("secrets-file"),
		},
	}), nil
}

func modelFlag(v *viper.Viper, key string) (llm.ModelID, error) {
	m, err := llm.ParseModel(v.GetString(key))
	if err != nil {
		return "", fmt.Errorf("--%s: %w", key, err)
	}
	return m, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := seedAdmin(db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if n, err := db.CleanupExpiredSessions(); err != nil {
		slog.Warn("failed to clean up expired sessions", "error", err)
	} else if n > 0 {
		slog.Info("removed expired sessions", "count", n)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	gw, err := newGateway(v)
	if err != nil {
		return err
	}
	evalModel, err := modelFlag(v, "llm-model")
	if err != nil {
		return err
	}
	genModel, err := modelFlag(v, "llm-generate-model")
	if err != nil {
		return err
	}
	if !gw.Available() {
		slog.Warn("no LLM API key found; analysis and generation are disabled",
			"env", llm.DefaultEnvVar, "secrets_file", v.GetString("secrets-file"))
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := gw.Ping(ctx); err != nil {
			slog.Warn("LLM health check failed", "url", v.GetString("llm-url"), "error", err)
		} else {
			slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"))
		}
		cancel()
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		DefaultModel:  string(genModel),
	}
	h, err := handler.New(db, evaluator.New(gw, evalModel), generator.New(gw, genModel), gw, cfg)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
		r.Get(basePath, func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, basePath+"/", http.StatusMovedPermanently)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"llm_url", v.GetString("llm-url"),
		"model", evalModel,
		"generate_model", genModel,
		"lang", lang,
		"base_path", basePath,
	)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	qt := model.QuestionType(v.GetString("type"))
	if !model.IsValidQuestionType(string(qt)) {
		return fmt.Errorf("unknown question type %q", qt)
	}
	gw, err := newGateway(v)
	if err != nil {
		return err
	}
	m, err := modelFlag(v, "llm-model")
	if err != nil {
		return err
	}

	content := v.GetString("question")
	if opts := v.GetStringSlice("option"); qt == model.TypeMultipleChoice && len(opts) > 0 {
		content += "\n" + strings.Join(opts, "\n")
	}
	a := evaluator.New(gw, m).Evaluate(cmd.Context(), model.QuestionContext{
		CourseTitle:     v.GetString("course"),
		ChapterTitle:    v.GetString("chapter"),
		ILOs:            v.GetString("ilos"),
		QuestionType:    qt,
		QuestionContent: content,
	})

	fmt.Fprintln(cmd.OutOrStdout(), a.Report)
	if !a.Available() {
		return fmt.Errorf("no analysis available")
	}
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	chapterID := v.GetInt64("chapter-id")
	qc, err := db.QuestionContext(chapterID)
	if err != nil {
		return fmt.Errorf("load chapter %d: %w", chapterID, err)
	}
	if qc == nil {
		return fmt.Errorf("chapter %d not found", chapterID)
	}
	if qc.ExampleQuestions, err = db.ExampleQuestions(chapterID, prompts.MaxExamples); err != nil {
		return fmt.Errorf("load example questions: %w", err)
	}

	gw, err := newGateway(v)
	if err != nil {
		return err
	}
	m, err := modelFlag(v, "llm-model")
	if err != nil {
		return err
	}
	req := generator.Request{
		Context:         *qc,
		NumQuestions:    v.GetInt("num"),
		DifficultyLevel: v.GetString("difficulty"),
		Model:           m,
	}
	for _, t := range v.GetStringSlice("types") {
		req.QuestionTypes = append(req.QuestionTypes, model.QuestionType(t))
	}
	if err := req.Validate(); err != nil {
		return err
	}

	questions, err := generator.New(gw, m).Generate(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}
	slog.Info("generated questions", "chapter_id", chapterID, "count", len(questions))

	if v.GetBool("save") && len(questions) > 0 {
		batchID := uuid.NewString()
		batch := make([]model.Question, 0, len(questions))
		for _, gq := range questions {
			batch = append(batch, gq.Question(chapterID, batchID, nil))
		}
		if _, err := db.InsertQuestions(batch); err != nil {
			return fmt.Errorf("save questions: %w", err)
		}
		slog.Info("saved generated batch", "batch_id", batchID, "count", len(batch))
	}

	return writeJSON(v.GetString("output"), questions)
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	chapterID := v.GetInt64("chapter-id")
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		res, err := db.ImportQuestions(chapterID, filepath.Clean(path), data, nil, v.GetBool("force"))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d)\n", path, res.Status, res.Count)
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	bank, err := db.ExportBank()
	if err != nil {
		return fmt.Errorf("export question bank: %w", err)
	}
	return writeJSON(v.GetString("output"), bank)
}

func writeJSON(outPath string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)
	return nil
}

func seedAdmin(db *store.Store, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or EXAMFORGE_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
