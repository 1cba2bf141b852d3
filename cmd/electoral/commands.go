package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"electoral-app/internal/app"
	"electoral-app/internal/auth"
	"electoral-app/internal/config"
	"electoral-app/internal/media"
	"electoral-app/internal/models"
	"electoral-app/internal/nav"
	"electoral-app/internal/view"
	"electoral-app/internal/web"
)

// Session commands

func newLoginCmd(opts *options) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Contraseña: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.SubmitAuth(cmd.Context(), app.AuthInput{Username: username, Password: password}); err != nil {
				return err
			}
			return printTree(cmd, a.View())
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newRegisterCmd(opts *options) *cobra.Command {
	var in app.AuthInput
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			a.ToggleAuthMode()
			if err := a.SubmitAuth(cmd.Context(), in); err != nil {
				return err
			}
			return printTree(cmd, a.View())
		},
	}
	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&in.Password, "password", "p", "", "Password")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "Phone")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRecoverCmd(opts *options) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Request a password recovery email",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			_, err = a.SubmitRecovery(cmd.Context(), email)
			return err
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			a.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "👋 Sesión cerrada")
			return nil
		},
	}
}

// whoami only decodes the stored token; the server is not contacted
func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show what the stored token says, without contacting the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			store, err := auth.NewFileTokenStore(cfg.Session.TokenDir, cfg.Session.StorageKey)
			if err != nil {
				return err
			}
			token, err := store.Load()
			if err != nil {
				return err
			}
			if token == "" {
				return errNoSession
			}

			out := cmd.OutOrStdout()
			info := auth.Inspect(token, time.Now())
			if info.Opaque {
				fmt.Fprintln(out, "🔑 Token opaco (no es un JWT)")
				return nil
			}
			fmt.Fprintf(out, "👤 Usuario: %s\n", info.Subject)
			fmt.Fprintf(out, "🎭 Rol: %s\n", info.Role)
			if !info.ExpiresAt.IsZero() {
				state := "Vence"
				if info.Expired {
					state = "Venció"
				}
				fmt.Fprintf(out, "⏰ %s %s (%s)\n", state,
					humanize.Time(info.ExpiresAt), info.ExpiresAt.Local().Format("02/01/2006 15:04"))
			}
			return nil
		},
	}
}

// Pages

func newProfileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the profile page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				return printTree(cmd, a.PageView(nav.PageProfile))
			})
		},
	}
}

func newNavCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "nav",
		Short: "List the pages visible to the current role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				user := a.Session().User()
				visible := nav.VisibleNavigation(user.Role)
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "🧭 Rol: %s\n", user.Role)
				for _, page := range nav.Pages {
					mark := "✗"
					if visible.Shows(page) {
						mark = "✓"
					}
					fmt.Fprintf(out, "  %s %s (%s)\n", mark, page.Label(), page)
				}
				return nil
			})
		},
	}
}

func newEmergencyCmd(opts *options) *cobra.Command {
	emergencyCmd := &cobra.Command{
		Use:   "emergency",
		Short: "Emergency reports",
	}

	var message, photoPath string
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send an emergency report, optionally with a photo",
		RunE: func(cmd *cobra.Command, args []string) error {
			var photo *models.Photo
			if photoPath != "" {
				p, err := media.OpenPhoto(photoPath)
				if err != nil {
					return err
				}
				photo = p
			}
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				return a.SubmitEmergency(ctx, message, photo)
			})
		},
	}
	sendCmd.Flags().StringVarP(&message, "message", "m", "", "What is happening")
	sendCmd.Flags().StringVar(&photoPath, "photo", "", "Image file to attach")
	_ = sendCmd.MarkFlagRequired("message")

	emergencyCmd.AddCommand(sendCmd)
	return emergencyCmd
}

func newMessagesCmd(opts *options) *cobra.Command {
	list := func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
			if err := a.Navigate(ctx, string(nav.PageMessages)); err != nil {
				return err
			}
			return printTree(cmd, a.PageView(nav.PageMessages))
		})
	}

	messagesCmd := &cobra.Command{
		Use:   "messages",
		Short: "Emergency message feed",
		RunE:  list,
	}
	messagesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List emergency messages",
		RunE:  list,
	})
	messagesCmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete an emergency message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				return a.DeleteEmergencyMessage(ctx, models.ID(args[0]))
			})
		},
	})
	return messagesCmd
}

func newAccessCmd(opts *options) *cobra.Command {
	accessCmd := &cobra.Command{
		Use:   "access",
		Short: "Request an elevated role",
	}

	var section, electoralCode string
	electoralCmd := &cobra.Command{
		Use:   "electoral",
		Short: "Request access to an electoral section",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := app.ParseSection(section)
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				return a.SubmitElectoralAccess(ctx, n, electoralCode)
			})
		},
	}
	electoralCmd.Flags().StringVar(&section, "section", "", "Section number")
	electoralCmd.Flags().StringVar(&electoralCode, "code", "", "Section code")
	_ = electoralCmd.MarkFlagRequired("section")
	_ = electoralCmd.MarkFlagRequired("code")

	var adminCode string
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Request admin access",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				return a.SubmitAdminAccess(ctx, adminCode)
			})
		},
	}
	adminCmd.Flags().StringVar(&adminCode, "code", "", "Admin code")
	_ = adminCmd.MarkFlagRequired("code")

	accessCmd.AddCommand(electoralCmd, adminCmd)
	return accessCmd
}

func newAdminCmd(opts *options) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin dashboard",
	}

	// dashboard enters the admin page, which loads stats, users and messages
	dashboard := func(cmd *cobra.Command, render func(a *app.App) *view.Node) error {
		return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
			if err := a.Navigate(ctx, string(nav.PageAdmin)); err != nil {
				return err
			}
			return printTree(cmd, render(a))
		})
	}

	adminCmd.AddCommand(&cobra.Command{
		Use:   "dashboard",
		Short: "Show the whole admin page",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashboard(cmd, func(a *app.App) *view.Node { return a.PageView(nav.PageAdmin) })
		},
	})
	adminCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show dashboard counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashboard(cmd, func(a *app.App) *view.Node { return view.RenderAdminStats(a.Stats()) })
		},
	})
	adminCmd.AddCommand(&cobra.Command{
		Use:   "users",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dashboard(cmd, func(a *app.App) *view.Node { return view.RenderUserList(a.Users()) })
		},
	})
	adminCmd.AddCommand(&cobra.Command{
		Use:   "delete-user ID",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				return a.DeleteUser(ctx, models.ID(args[0]))
			})
		},
	})
	adminCmd.AddCommand(&cobra.Command{
		Use:   "export",
		Short: "Export the reports PDF to the configured sink",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				_, err := a.ExportPDF(ctx)
				return err
			})
		},
	})
	adminCmd.AddCommand(newExportsCmd(opts))
	return adminCmd
}

// newExportsCmd manages the reports kept in the export sink. The sink is
// local configuration, so no session is needed.
func newExportsCmd(opts *options) *cobra.Command {
	exportsCmd := &cobra.Command{
		Use:   "exports",
		Short: "Manage saved report exports",
	}

	exportsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			exports, err := a.ListExports(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(exports) == 0 {
				fmt.Fprintln(out, "No hay reportes exportados")
				return nil
			}
			for _, e := range exports {
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.Name, humanize.Bytes(uint64(e.Size)),
					view.FormatDateTime(models.Timestamp{Time: e.ModTime}), e.Location)
			}
			return nil
		},
	})

	var output string
	getCmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Copy a saved report to a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			r, err := a.OpenExport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			dest := output
			if dest == "" {
				dest = filepath.Base(args[0])
			}
			f, err := os.Create(dest)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", dest, err)
			}
			n, err := io.Copy(f, r)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("failed to write %s: %w", dest, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📄 %s guardado en %s (%s)\n", args[0], dest, humanize.Bytes(uint64(n)))
			return nil
		},
	}
	getCmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (defaults to NAME in the current directory)")
	exportsCmd.AddCommand(getCmd)

	exportsCmd.AddCommand(&cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			if err := a.DeleteExport(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Reporte %s eliminado\n", args[0])
			return nil
		},
	})
	return exportsCmd
}

func newPhotoCmd(opts *options) *cobra.Command {
	photoCmd := &cobra.Command{
		Use:   "photo",
		Short: "Profile photo",
	}
	photoCmd.AddCommand(&cobra.Command{
		Use:   "upload PATH",
		Short: "Replace the profile photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			photo, err := media.OpenPhoto(args[0])
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, a *app.App) error {
				return a.UploadProfilePhoto(ctx, photo)
			})
		},
	})
	return photoCmd
}

func newServeCmd(opts *options) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local web UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts, func(cfg *config.Config) {
				if host != "" {
					cfg.Web.Host = host
				}
				if port != 0 {
					cfg.Web.Port = port
				}
			})
			if err != nil {
				return err
			}
			if !cfg.Logging.Verbose {
				gin.SetMode(gin.ReleaseMode)
			}

			flash := web.NewFlash()
			a, err := app.New(cfg, app.Deps{Notifier: flash})
			if err != nil {
				return err
			}
			srv, err := web.NewServer(a, flash)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if _, err := a.Restore(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %s\n", a.AuthState().Error)
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides ELECTORAL_WEB_HOST)")
	cmd.Flags().IntVar(&port, "port", 0, "Listen port (overrides ELECTORAL_WEB_PORT)")
	return cmd
}
