package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"studiochat/internal/config"
	"studiochat/internal/domain"
	"studiochat/internal/history"
	"studiochat/internal/metrics"
	"studiochat/internal/search"
	"studiochat/internal/session"
	"studiochat/internal/studio"
	"studiochat/internal/transport"
	"studiochat/internal/tui"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "studiochat",
		Short: "studiochat: terminal client for the studio generation agent",
		Long:  "studiochat drives conversational generation turns against a studio backend, including mid-turn clarification questions and tool telemetry.",
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.json (default: ~/.studiochat/config.json)")

	root.AddCommand(initCmd())
	root.AddCommand(chatCmd())
	root.AddCommand(historyCmd())
	root.AddCommand(statusCmd())
	root.AddCommand(configCmd())
	return root
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.DefaultConfigPath()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.General.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	out := os.Stderr
	if cfg.General.LogFile != "" {
		if f, err := os.OpenFile(cfg.General.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
			out = f
		}
	}
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	return cfg, nil
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := resolveConfigPath()
			if err := config.Save(cfgPath, config.Defaults()); err != nil {
				return err
			}
			logger.Info("initialized", "config", cfgPath)
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	var studioType, topicID string
	var attachRefs []string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive session for a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if topicID == "" {
				return fmt.Errorf("--topic is required")
			}
			if studioType == "" {
				studioType = cfg.Studio.Default
			}

			registry := studio.NewRegistry()
			if presets, err := studio.LoadFromDirectory(cfg.Studio.PresetsDir, logger); err == nil {
				for _, p := range presets {
					registry.Register(p)
				}
			}
			preset, err := registry.Get(studioType)
			if err != nil {
				return err
			}

			var attachments []domain.Attachment
			for _, ref := range attachRefs {
				att := attachmentFromRef(ref)
				if !studio.AcceptsAttachment(preset, att.Type) {
					return fmt.Errorf("studio %s does not accept %s attachments (%s)", studioType, att.Type, ref)
				}
				attachments = append(attachments, att)
			}

			timeout := time.Duration(cfg.Backend.TimeoutSeconds) * time.Second
			client := transport.NewClient(cfg.Backend.BaseURL, timeout, logger)
			searcher := search.NewClient(cfg.Backend.BaseURL, timeout, logger)
			recorder := metrics.NewRecorder()

			ctrl := session.New(session.Config{
				StudioType: studioType,
				TopicID:    topicID,
				Transport:  client,
				Logger:     logger,
				Metrics:    recorder,
			})

			var cache *history.Store
			if cfg.Cache.Enabled {
				cache, err = history.NewStore(cfg.Cache.DBPath, logger)
				if err != nil {
					logger.Warn("transcript cache unavailable", "err", err)
				} else {
					defer cache.Close()
				}
			}

			ctx := context.Background()
			if err := ctrl.LoadHistory(ctx, studioType, topicID); err != nil {
				// The session stays usable with an empty transcript.
				logger.Warn("history load failed", "err", err)
			}

			model := tui.New(tui.Config{
				Controller:         ctrl,
				Searcher:           searcher,
				Logger:             logger,
				SearchLimit:        cfg.Search.Limit,
				AutoAdvance:        time.Duration(cfg.UI.AutoAdvanceMs) * time.Millisecond,
				InitialAttachments: attachments,
			})
			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return err
			}

			snap := ctrl.Snapshot()
			if cache != nil {
				if err := cache.SaveTranscript(ctx, studioType, topicID, snap.ThreadID, snap.Messages); err != nil {
					logger.Warn("transcript mirror failed", "err", err)
				}
			}
			printStats(recorder.Snapshot())
			return nil
		},
	}
	cmd.Flags().StringVarP(&studioType, "studio", "s", "", "studio type (default from config)")
	cmd.Flags().StringVarP(&topicID, "topic", "t", "", "topic identifier")
	cmd.Flags().StringArrayVar(&attachRefs, "attach", nil, "already-uploaded attachment URL sent with the first message (repeatable)")
	return cmd
}

// attachmentFromRef builds an attachment reference from an uploaded asset
// URL, inferring the type from the file extension.
func attachmentFromRef(raw string) domain.Attachment {
	name := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		name = path.Base(u.Path)
	}
	att := domain.Attachment{URL: raw, Name: name}
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		att.Type = domain.AttachmentImage
	case ".mp4", ".mov", ".webm":
		att.Type = domain.AttachmentVideo
	default:
		att.Type = domain.AttachmentFile
	}
	return att
}

func printStats(s metrics.Snapshot) {
	fmt.Printf("session: %d turn(s), %d completed, %d failed\n", s.TurnsStarted, s.TurnsCompleted, s.TurnsFailed)
	for _, ec := range s.Events {
		fmt.Printf("  %-18s %d\n", ec.Type, ec.Count)
	}
}

func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse locally cached transcripts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			topics, err := store.ListTopics(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(topics) == 0 {
				fmt.Fprintln(out, "no cached transcripts")
				return nil
			}
			for _, t := range topics {
				fmt.Fprintf(out, "%-10s %-20s %4d message(s)  %s\n", t.StudioType, t.TopicID, t.Messages, t.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "max topics to list")
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyRmCmd())
	return cmd
}

func openStore() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return history.NewStore(cfg.Cache.DBPath, logger)
}

func historyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <studio> <topic>",
		Short: "Print a cached transcript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			threadID, msgs, err := store.GetTranscript(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "no cached transcript")
				return nil
			}
			if threadID != "" {
				fmt.Fprintf(out, "thread %s\n", threadID)
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "%s: %s\n", m.Role, m.Content)
				for _, a := range m.Attachments {
					fmt.Fprintf(out, "  [%s] %s\n", a.Type, a.URL)
				}
			}
			return nil
		},
	}
}

func historyRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <studio> <topic>",
		Short: "Delete a cached transcript",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteTranscript(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s/%s\n", args[0], args[1])
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show config and backend health",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("studiochat %s\n", version)
			fmt.Printf("backend: %s\n", cfg.Backend.BaseURL)

			client := transport.NewClient(cfg.Backend.BaseURL, 10*time.Second, logger)
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := client.Health(ctx); err != nil {
				fmt.Printf("health: %v\n", err)
			} else {
				fmt.Println("health: ok")
			}

			registry := studio.NewRegistry()
			if presets, err := studio.LoadFromDirectory(cfg.Studio.PresetsDir, logger); err == nil {
				for _, p := range presets {
					registry.Register(p)
				}
			}
			fmt.Println("studios:")
			for _, p := range registry.List() {
				fmt.Printf("  %-10s %s\n", p.Name, p.Title)
			}
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <path>",
		Short: "Get a config value by dot path (e.g. backend.baseUrl)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			val, err := config.GetByPath(cfg, args[0])
			if err != nil {
				return err
			}
			fmt.Println(val)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <path> <value>",
		Short: "Set a config value by dot path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := config.SetByPath(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return config.Save(resolveConfigPath(), cfg)
		},
	})

	return cmd
}
