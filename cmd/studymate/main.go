package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"studymate/internal/api"
	"studymate/internal/chat"
	"studymate/internal/exam"
	appI18n "studymate/internal/i18n"
	"studymate/internal/llm"
	"studymate/internal/model"
	"studymate/internal/store"
	"studymate/internal/stub"
	"studymate/internal/ui"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "studymate",
		Short: "Terminal study assistant with chat and practice exams",
	}

	chatScreen := screenCmd("chat", "Start on the chat screen", model.TabChat)
	root.AddCommand(chatScreen, screenCmd("exam", "Start on the exam screen", model.TabExam), stubCmd(), exportCmd())

	// Make "chat" the default when no subcommand is given.
	root.RunE = chatScreen.RunE

	// Register chat flags on root so bare `studymate --server ...` still works.
	root.Flags().AddFlagSet(chatScreen.Flags())

	return root
}

func screenCmd(use, short string, initial model.Tab) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApp(cmd, initial)
		},
	}
	f := cmd.Flags()
	f.StringP("server", "s", "http://localhost:8080", "Study service base URL")
	f.String("student", "", "Student identifier (defaults to the last one used)")
	f.String("db", "studymate.db", "Local archive SQLite path (empty disables archiving)")
	f.StringP("lang", "l", "en", "UI language (en, ru)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func stubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local stub of the study service",
		RunE:  runStub,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("llm-url", "", "OpenAI-compatible API base URL (empty uses canned replies)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the local archive as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "studymate.db", "Local archive SQLite path")
	f.String("student", "", "Only export results for this student")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
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

	v.SetEnvPrefix("STUDYMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("studymate")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/studymate")
	v.AddConfigPath("/etc/studymate")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runApp(cmd *cobra.Command, initial model.Tab) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var archive *store.Store
	student := v.GetString("student")
	if dbPath := v.GetString("db"); dbPath != "" {
		db, err := store.New(dbPath)
		if err != nil {
			return fmt.Errorf("open archive: %w", err)
		}
		defer db.Close()
		archive = db

		if student == "" {
			last, err := db.GetMetadata(store.MetaLastStudentID)
			if err != nil {
				return fmt.Errorf("read last student: %w", err)
			}
			student = last
		}
	}
	if student == "" {
		student = "student-1"
	}

	client := api.New(v.GetString("server"))
	chatCtrl := chat.New(client, chat.Config{})
	examCtrl := exam.New(client)

	slog.Info("starting", "server", v.GetString("server"), "student", student, "lang", lang)

	// A nil *store.Store must stay a nil interface.
	var archiver ui.Archiver
	if archive != nil {
		archiver = archive
	}

	ctx := appI18n.WithLocalizer(cmd.Context(), appI18n.NewLocalizer(lang))
	app := ui.NewApp(os.Stdin, os.Stdout, initial, chatCtrl, examCtrl, archiver, student)
	return app.Run(ctx)
}

func runStub(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	var responder stub.Responder
	if url := v.GetString("llm-url"); url != "" {
		client := llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		if err := client.Ping(context.Background()); err != nil {
			return fmt.Errorf("LLM health check: %w", err)
		}
		slog.Info("LLM endpoint OK", "url", url, "model", v.GetString("llm-model"))
		responder = client
	} else {
		slog.Info("no LLM endpoint configured, using canned replies")
		responder = llm.NewCanned()
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	stub.NewServer(responder).Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting stub server", "addr", addr)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer db.Close()

	archive, err := db.Export(v.GetString("student"))
	if err != nil {
		return fmt.Errorf("export archive: %w", err)
	}

	data, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
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
	if outPath != "" && outPath != "-" {
		slog.Info("archive exported", "path", outPath, "results", len(archive.Results), "transcripts", len(archive.Transcripts))
	}
	return nil
}
