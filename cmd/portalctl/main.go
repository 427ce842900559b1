package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	portalclient "github.com/gdsc-dev/portalclient"
	"github.com/gdsc-dev/portalclient/authclient"
	"github.com/gdsc-dev/portalclient/config"
	"github.com/gdsc-dev/portalclient/devserver"
	"github.com/gdsc-dev/portalclient/guard"
	"github.com/gdsc-dev/portalclient/session"
)

var (
	cfgPath string
	baseURL string
)

func main() {
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Command-line client for the institute management API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file path")
	root.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL override")

	root.AddCommand(loginCmd(), logoutCmd(), whoamiCmd(), coursesCmd(), serveCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newClient() (*portalclient.Client, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
	return portalclient.New(cfg)
}

func loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			sess, err := client.Auth.Login(cmd.Context(), authclient.LoginRequest{
				Username: username,
				Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s (roles: %v)\n", sess.Username, sess.Roles)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			if err := client.Auth.Logout(); err != nil {
				return err
			}
			fmt.Println("logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			sess := client.Sessions.Current()
			if !sess.Authenticated {
				fmt.Println("not logged in")
				return nil
			}
			fmt.Printf("%s (roles: %v)\n", sess.Username, sess.Roles)
			return nil
		},
	}
}

func coursesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Course operations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List courses",
		RunE: func(c *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			// Admin screens gate this view on the admin role; mirror
			// that check before spending a network call.
			decision := client.Guard.Authorize("/courses", &guard.Requirement{
				Roles: []session.Role{session.RoleAdmin, session.RoleTeacher},
			})
			if !decision.Allow {
				return fmt.Errorf("not authorized, go to %s", decision.RedirectTo)
			}
			courses, err := client.Institute.Courses.List(c.Context(), 0, 50)
			if err != nil {
				return err
			}
			for _, course := range courses {
				fmt.Printf("%d\t%s\t%s\n", course.ID, course.Code, course.Name)
			}
			return nil
		},
	})
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the in-memory dev API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			server := devserver.New(devserver.Config{
				AccessTokenTTL:  cfg.Auth.AccessTokenTTL,
				RefreshTokenTTL: cfg.Auth.RefreshTokenTTL,
			}, nil)
			return server.Listen(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
