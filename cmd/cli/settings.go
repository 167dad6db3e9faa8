package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/provider"
	"github.com/fleveque/motqot/internal/storage"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change stored preferences",
	}
	cmd.AddCommand(configShowCmd(), configSetCmd())
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences (the API key is masked)",
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			key, err := a.prefs.APIKey(ctx)
			if err != nil {
				return err
			}
			baseURL, err := a.prefs.BaseURL(ctx)
			if err != nil {
				return err
			}
			modelID, err := a.prefs.Model(ctx)
			if err != nil {
				return err
			}
			preset, err := a.prefs.Preset(ctx)
			if err != nil {
				return err
			}
			lang, err := a.prefs.Language(ctx)
			if err != nil {
				return err
			}
			enabled, err := a.prefs.NotificationsEnabled(ctx)
			if err != nil {
				return err
			}
			hour, minute, err := a.prefs.NotificationTime(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "api-key\t%s\n", storage.MaskAPIKey(key))
			fmt.Fprintf(w, "base-url\t%s\n", baseURL)
			fmt.Fprintf(w, "model\t%s\n", modelID)
			fmt.Fprintf(w, "preset\t%s\n", preset)
			fmt.Fprintf(w, "language\t%s (%s)\n", lang, llm.LanguageName(lang))
			fmt.Fprintf(w, "notifications\t%t\n", enabled)
			fmt.Fprintf(w, "notification-time\t%02d:%02d\n", hour, minute)
			return w.Flush()
		}),
	}
}

// setters maps `config set` keys onto preference writes.
var setters = map[string]func(context.Context, *storage.Preferences, string) error{
	"api-key": func(ctx context.Context, p *storage.Preferences, v string) error {
		return p.SetAPIKey(ctx, v)
	},
	"base-url": func(ctx context.Context, p *storage.Preferences, v string) error {
		return p.SetBaseURL(ctx, v)
	},
	"model": func(ctx context.Context, p *storage.Preferences, v string) error {
		return p.SetModel(ctx, v)
	},
	"language": func(ctx context.Context, p *storage.Preferences, v string) error {
		return p.SetLanguage(ctx, v)
	},
	"notifications": func(ctx context.Context, p *storage.Preferences, v string) error {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("notifications must be true or false, got %q", v)
		}
		return p.SetNotificationsEnabled(ctx, enabled)
	},
	"notification-time": func(ctx context.Context, p *storage.Preferences, v string) error {
		hour, minute, err := parseClock(v)
		if err != nil {
			return err
		}
		return p.SetNotificationTime(ctx, hour, minute)
	},
}

func setterKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseClock parses HH:MM.
func parseClock(v string) (int, int, error) {
	h, m, ok := strings.Cut(v, ":")
	if !ok {
		return 0, 0, fmt.Errorf("time must be HH:MM, got %q", v)
	}
	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("time must be HH:MM, got %q", v)
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, 0, fmt.Errorf("time must be HH:MM, got %q", v)
	}
	return hour, minute, nil
}

func configSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one preference",
		Long:  "Change one preference. Keys: " + strings.Join(setterKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			set, ok := setters[args[0]]
			if !ok {
				return fmt.Errorf("unknown key %q (valid: %s)", args[0], strings.Join(setterKeys(), ", "))
			}
			if err := set(ctx, a.prefs, strings.TrimSpace(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		}),
	}
}

func presetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preset [id]",
		Short: "List provider presets, or select one",
		Long: "Without an argument, list the presets and mark the selected one.\n" +
			"With an id, select it: its base URL and model replace the stored ones.\n" +
			"Selecting \"custom\" keeps the current values.",
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			if len(args) == 0 {
				current, err := a.prefs.Preset(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, id := range provider.IDs() {
					mark := " "
					if id == current {
						mark = "*"
					}
					p, _ := provider.Get(id)
					fmt.Fprintf(w, "%s %s\t%s\t%s\n", mark, id, p.BaseURL, p.Model)
				}
				return w.Flush()
			}

			id := args[0]
			if !provider.Valid(id) {
				return fmt.Errorf("unknown preset %q (valid: %s)", id, strings.Join(provider.IDs(), ", "))
			}
			if err := a.prefs.SetPreset(ctx, id); err != nil {
				return err
			}
			if err := provider.Apply(ctx, id, a.prefs); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "preset %s selected\n", id)
			return nil
		}),
	}
}
