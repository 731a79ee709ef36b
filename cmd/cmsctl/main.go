package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/dashboard"
	"PortfolioCMS/internal/model"
	"PortfolioCMS/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd собирает cmsctl; logOut - куда пишутся уведомления мутаций
func newRootCmd(cfg *config.Config, logOut io.Writer) *cobra.Command {
	url, token := cfg.Client.URL, cfg.Client.Token
	var limit int

	root := &cobra.Command{
		Use:           "cmsctl",
		Short:         "Admin CLI for the portfolio CMS",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&url, "url", url, "CMS base URL (CMS_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "session token (CMS_TOKEN)")

	client := func() *dashboard.APIClient {
		c := dashboard.NewAPIClient(url, nil)
		c.SetToken(token)
		return c
	}

	var email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Open an admin session and print its token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("CMS_PASSWORD")
			}
			tok, err := client().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	login.Flags().StringVar(&email, "email", cfg.Auth.AdminEmail, "admin e-mail")
	login.Flags().StringVar(&password, "password", "", "admin password (CMS_PASSWORD)")

	list := &cobra.Command{
		Use:   "list <collection>",
		Short: "Print a collection in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := model.LookupCollection(args[0])
			if err != nil {
				return err
			}
			rows, meta, err := client().List(cmd.Context(), spec.Name, limit, 0)
			if err != nil {
				return err
			}
			printRows(cmd.OutOrStdout(), rows)
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(rows), meta.Total)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 100, "page size")

	move := &cobra.Command{
		Use:   "move <collection> <from> <to>",
		Short: "Drag the row at index <from> to index <to> and save the new order",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := model.LookupCollection(args[0])
			if err != nil {
				return err
			}
			from, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid <from>: %w", err)
			}
			to, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid <to>: %w", err)
			}
			return runMove(cmd.Context(), cmd.OutOrStdout(), client(), spec, from, to, limit, logOut)
		},
	}
	move.Flags().IntVar(&limit, "limit", 100, "page size of the visible list")

	root.AddCommand(login, list, move)
	return root
}

// runMove проводит один жест через контроллер и ждёт завершения мутации
func runMove(ctx context.Context, out io.Writer, api *dashboard.APIClient, spec model.CollectionSpec, from, to, limit int, logOut io.Writer) error {
	log := logger.NewWithWriter(logOut, "info", "text")
	cache := dashboard.NewQueryCache(func(ctx context.Context, c model.Collection) ([]dashboard.Row, error) {
		rows, _, err := api.List(ctx, c, limit, 0)
		return rows, err
	})
	ctl := dashboard.NewListController(spec, dashboard.NewReorderMutation(api, cache, dashboard.NewLogNotifier(log)), log)
	defer cache.Subscribe(spec.Name, ctl.Hydrate)()

	rows, err := cache.Get(ctx, spec.Name)
	if err != nil {
		return err
	}
	if from < 0 || from >= len(rows) {
		return fmt.Errorf("index %d out of range [0, %d)", from, len(rows))
	}
	g, err := ctl.Drag(rows[from].ID)
	if err != nil {
		return err
	}
	if _, err := ctl.Drop(g, to); err != nil {
		return err
	}
	ctl.Wait()
	if err := g.Err(); err != nil {
		return err
	}
	printRows(out, ctl.Rows())
	return nil
}

func printRows(w io.Writer, rows []dashboard.Row) {
	for i, r := range rows {
		pos := "-"
		if r.Position != nil {
			pos = strconv.Itoa(*r.Position)
		}
		fmt.Fprintf(w, "%3d  %-4s %-36s %s\n", i, pos, r.ID, r.Label)
	}
}
