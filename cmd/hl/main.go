package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hireline/internal/app"
	"hireline/internal/config"
	"hireline/internal/dashboard"
	"hireline/internal/db"
	"hireline/internal/engine"
	"hireline/internal/logging"
	"hireline/internal/migrate"
	"hireline/internal/server"
	"hireline/internal/session"
	"hireline/internal/view"
	sdk "hireline/sdk/go"
)

var rootCmd = &cobra.Command{
	Use:   "hl",
	Short: "Hireline CLI",
	Long: `Hireline talks to the recruiting backend: jobs, candidates and the
application pipeline.
- Applications move through stages (shortlisting, screening, interview, offer ...).
- Every move, rejection and screening is appended to the application's journey.
- Writes are attributed to the acting user: --actor, the bearer token's name
  claim, or actor.default in hireline.yml, in that order, else "Admin".
- 'hl sandbox serve' runs a local backend for development.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("HIRELINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to hireline.yml")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (overrides api.base_url)")
	rootCmd.PersistentFlags().String("token", "", "bearer token (overrides api.token)")
	rootCmd.PersistentFlags().String("actor", "", "acting user for lifecycle writes")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("api-url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
}

func registerCommands() {
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(candidatesCmd())
	rootCmd.AddCommand(appCmd())
	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(uploadCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(sandboxCmd())
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show pipeline statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				res := dashboard.New(c).Stats(ctx)
				if !res.OK() {
					fmt.Fprintf(os.Stderr, "warning: could not read %v; showing zeros\n", res.Failed)
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Metric", "Value"})
				tw.AppendRow(table.Row{"Active jobs", res.Stats.ActiveJobs})
				tw.AppendRow(table.Row{"Candidates", res.Stats.TotalCandidates})
				tw.AppendRow(table.Row{"Applications", res.Stats.TotalApplications})
				tw.AppendRow(table.Row{"Hot applicants", res.Stats.HotApplicants})
				tw.AppendRow(table.Row{"Avg AI score", res.Stats.AvgAIScore})
				tw.Render()
				return nil
			})
		},
	}
}

func jobsCmd() *cobra.Command {
	jobs := &cobra.Command{Use: "jobs", Short: "Browse job postings"}
	jobs.AddCommand(jobsListCmd())
	jobs.AddCommand(jobsShowCmd())
	return jobs
}

func jobsListCmd() *cobra.Command {
	var active bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				q := url.Values{}
				if active {
					q.Set("isActive", "true")
				}
				jobs, err := c.Jobs.List(ctx, q)
				if err != nil {
					return err
				}
				views := make([]view.JobView, 0, len(jobs))
				for i := range jobs {
					views = append(views, view.NewJobView(&jobs[i]))
				}
				if viper.GetBool("json") {
					return printJSON(views)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"ID", "Title", "Department", "Type", "Setup", "Active"})
				for _, v := range views {
					tw.AppendRow(table.Row{v.ID, v.Title, v.Department, v.RoleType, v.WorkSetup, v.IsActive})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&active, "active", false, "only active postings")
	return cmd
}

func jobsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				job, err := c.Jobs.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(view.NewJobView(&job))
			})
		},
	}
}

func candidatesCmd() *cobra.Command {
	cands := &cobra.Command{Use: "candidates", Short: "Browse applicants (one row per application)"}
	cands.AddCommand(candidatesListCmd())
	cands.AddCommand(candidatesShowCmd())
	return cands
}

func candidatesListCmd() *cobra.Command {
	var jobID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applicants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				var apps []sdk.Application
				var err error
				if jobID != "" {
					apps, err = c.Applications.ListByJob(ctx, jobID)
				} else {
					apps, err = c.Applications.List(ctx, nil)
				}
				if err != nil {
					return err
				}
				views := candidateViews(apps, os.Stderr)
				if viper.GetBool("json") {
					return printJSON(views)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"Application", "Name", "Job", "Stage", "Status", "AI", "Hot", "Applied"})
				for _, v := range views {
					score := "-"
					if v.AIScore != nil {
						score = fmt.Sprintf("%g", *v.AIScore)
					}
					hot := ""
					if v.IsHotApplicant {
						hot = "yes"
					}
					tw.AppendRow(table.Row{v.ID, v.Name, v.JobTitle, v.StageLabel, v.Status, score, hot, v.AppliedDate})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&jobID, "job", "", "only applications to this job")
	return cmd
}

func candidatesShowCmd() *cobra.Command {
	var interviews bool
	cmd := &cobra.Command{
		Use:   "show <application-id>",
		Short: "Show one applicant with comments and journey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				a, err := c.Applications.Get(ctx, args[0])
				if err != nil {
					return err
				}
				v := view.NewCandidateView(&a)
				warnView(os.Stderr, &v)
				if interviews {
					items, err := c.Interviews.List(ctx, url.Values{"applicationId": {a.ID}})
					if err != nil {
						return err
					}
					v.MergeInterviews(items)
				}
				return printJSON(v)
			})
		},
	}
	cmd.Flags().BoolVar(&interviews, "interviews", false, "include interview rounds")
	return cmd
}

func appCmd() *cobra.Command {
	a := &cobra.Command{Use: "app", Short: "Move applications through the pipeline"}
	a.AddCommand(appStageCmd())
	a.AddCommand(appStatusCmd())
	a.AddCommand(appRejectCmd())
	a.AddCommand(appMoveCmd())
	a.AddCommand(appCommentCmd())
	a.AddCommand(appFlagCmd("hot", "Flag a hot applicant", func(ctx context.Context, c *sdk.Client, id string, on bool) (sdk.Application, error) {
		return c.Applications.SetHotApplicant(ctx, id, on)
	}))
	a.AddCommand(appFlagCmd("attention", "Flag an application as needing attention", func(ctx context.Context, c *sdk.Client, id string, on bool) (sdk.Application, error) {
		return c.Applications.SetNeedsAttention(ctx, id, on)
	}))
	a.AddCommand(appScreenCmd())
	a.AddCommand(appJourneyCmd())
	return a
}

func appStageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stage <id> <stage>",
		Short: "Set the stage without a journey entry of your own",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				return printApplication(c.Applications.UpdateStage(ctx, args[0], args[1]))
			})
		},
	}
}

func appStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set the status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				return printApplication(c.Applications.UpdateStatus(ctx, args[0], args[1]))
			})
		},
	}
}

func appRejectCmd() *cobra.Command {
	var reason, by string
	cmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Reject an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				return printApplication(c.Applications.Reject(ctx, args[0], reason, sdk.RejectOptions{RejectedBy: by}))
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason (required)")
	cmd.Flags().StringVar(&by, "by", "", "who rejects (defaults to the acting user)")
	return cmd
}

func appMoveCmd() *cobra.Command {
	var notes, by, action string
	cmd := &cobra.Command{
		Use:   "move <id> <stage>",
		Short: "Move to a stage and record it in the journey",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				return printApplication(c.Applications.MoveToStage(ctx, args[0], args[1], sdk.MoveOptions{
					MovedBy: by,
					Notes:   notes,
					Action:  action,
				}))
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the journey entry")
	cmd.Flags().StringVar(&by, "by", "", "who moves it (defaults to the acting user)")
	cmd.Flags().StringVar(&action, "action", "", "journey action (default stage_change)")
	return cmd
}

func appCommentCmd() *cobra.Command {
	var stage, author string
	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Add a comment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				comments, err := c.Applications.AddComment(ctx, args[0], sdk.NewComment{Text: args[1], Author: author, Stage: stage})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(comments)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"When", "Author", "Stage", "Comment"})
				for _, cm := range comments {
					tw.AppendRow(table.Row{cm.Timestamp, cm.Author, cm.Stage, cm.Text})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&stage, "stage", "", "stage the comment refers to")
	cmd.Flags().StringVar(&author, "author", "", "author (defaults to the acting user)")
	return cmd
}

func appFlagCmd(use, short string, set func(context.Context, *sdk.Client, string, bool) (sdk.Application, error)) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				return printApplication(set(ctx, c, args[0], !off))
			})
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "clear the flag instead")
	return cmd
}

func appScreenCmd() *cobra.Command {
	var s sdk.Screening
	cmd := &cobra.Command{
		Use:   "screen <id>",
		Short: "Schedule a screening call",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.Date == "" {
				return fmt.Errorf("--date required")
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				return printApplication(c.Applications.ScheduleScreening(ctx, args[0], s))
			})
		},
	}
	cmd.Flags().StringVar(&s.Date, "date", "", "screening date/time (RFC3339)")
	cmd.Flags().StringVar(&s.Notes, "notes", "", "notes")
	cmd.Flags().StringVar(&s.Interviewer, "interviewer", "", "interviewer")
	cmd.Flags().StringVar(&s.Platform, "platform", "", "meeting platform")
	cmd.Flags().StringVar(&s.Link, "link", "", "meeting link")
	cmd.Flags().IntVar(&s.Duration, "duration", 30, "duration in minutes")
	return cmd
}

func appJourneyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "journey <id>",
		Short: "Show the application journey",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				entries, err := c.Applications.Journey(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(entries)
				}
				tw := newTable()
				tw.AppendHeader(table.Row{"When", "Action", "From", "To", "By", "Notes"})
				for _, h := range entries {
					tw.AppendRow(table.Row{h.Timestamp, h.Action, view.StageLabel(h.FromStage), view.StageLabel(h.ToStage), h.MovedBy, h.Notes})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func applyCmd() *cobra.Command {
	var in sdk.PublicApplication
	var resume string
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit a public application (no credentials sent)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if in.JobID == "" || in.FirstName == "" || in.Email == "" {
				return fmt.Errorf("--job, --first-name and --email required")
			}
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				if resume != "" {
					up, err := uploadPath(ctx, c.UploadResume, resume)
					if err != nil {
						return err
					}
					in.ResumeKey = up.Key
				}
				env, err := c.Applications.PublicApply(ctx, in)
				if err != nil {
					return err
				}
				return printJSON(env)
			})
		},
	}
	cmd.Flags().StringVar(&in.JobID, "job", "", "job id")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone")
	cmd.Flags().StringVar(&in.LinkedInURL, "linkedin", "", "LinkedIn URL")
	cmd.Flags().StringVar(&in.PortfolioURL, "portfolio", "", "portfolio URL")
	cmd.Flags().StringVar(&in.CoverLetter, "cover-letter", "", "cover letter text")
	cmd.Flags().StringVar(&resume, "resume", "", "resume file to upload first")
	return cmd
}

func uploadCmd() *cobra.Command {
	up := &cobra.Command{Use: "upload", Short: "Upload files and fetch download links"}
	up.AddCommand(&cobra.Command{
		Use:   "resume <path>",
		Short: "Upload a resume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				res, err := uploadPath(ctx, c.UploadResume, args[0])
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	})
	up.AddCommand(&cobra.Command{
		Use:   "file <path>",
		Short: "Upload an attachment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				res, err := uploadPath(ctx, c.UploadFile, args[0])
				if err != nil {
					return err
				}
				return printJSON(res)
			})
		},
	})
	up.AddCommand(&cobra.Command{
		Use:   "url <key>",
		Short: "Get a signed download URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), func(ctx context.Context, c *sdk.Client) error {
				res, err := c.SignedURL(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				fmt.Println(res.URL)
				return nil
			})
		},
	})
	return up
}

func tokenCmd() *cobra.Command {
	tok := &cobra.Command{Use: "token", Short: "Development tokens"}
	var opts session.IssueOptions
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue an HS256 token for the sandbox",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			secret := cfg.Session.Secret
			if secret == "" {
				secret = cfg.Sandbox.JWTSecret
			}
			if secret == "" {
				return fmt.Errorf("set session.secret or sandbox.jwt_secret (HIRELINE_JWT_SECRET)")
			}
			signed, err := session.Issue(secret, opts)
			if err != nil {
				return err
			}
			fmt.Println(signed)
			return nil
		},
	}
	issue.Flags().StringVar(&opts.Subject, "subject", "", "user id (required)")
	issue.Flags().StringVar(&opts.Name, "name", "", "display name used as the actor")
	issue.Flags().StringVar(&opts.Email, "email", "", "email")
	issue.Flags().StringSliceVar(&opts.Roles, "role", nil, "role (repeatable)")
	issue.Flags().DurationVar(&opts.TTL, "ttl", 12*time.Hour, "token lifetime")
	tok.AddCommand(issue)
	return tok
}

func configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{Use: "config", Short: "Inspect or create hireline.yml"}
	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(cfg)
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			fmt.Print(out)
			return nil
		},
	})
	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default hireline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().StringVar(&path, "path", "hireline.yml", "file to write")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)
	return cfgCmd
}

func sandboxCmd() *cobra.Command {
	sb := &cobra.Command{Use: "sandbox", Short: "Local stand-in backend"}
	var addr, basePath, workspace string
	var inMemory bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sandbox API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Sandbox.Addr
			}
			if basePath == "" {
				basePath = cfg.Sandbox.BasePath
			}
			if workspace == "" {
				workspace = cfg.Sandbox.Workspace
			}
			logger := logging.New(os.Stderr, cfg.Log)
			conn, err := db.Open(db.Config{Workspace: workspace, InMemory: inMemory})
			if err != nil {
				return err
			}
			defer conn.Close()
			applied, err := migrate.Migrate(cmd.Context(), conn)
			if err != nil {
				return err
			}
			for _, name := range applied {
				logger.Info("applied migration", slog.String("name", name))
			}
			handler, err := server.New(server.Config{
				Engine:    engine.New(conn, logger),
				BasePath:  basePath,
				JWTSecret: cfg.Sandbox.JWTSecret,
				Logger:    logger,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			where := db.Path(workspace)
			if inMemory {
				where = "memory"
			}
			fmt.Printf("Serving Hireline sandbox on http://%s%s (data: %s, metrics at /metrics)\n", addr, basePath, where)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (default sandbox.addr)")
	serve.Flags().StringVar(&basePath, "base-path", "", "API base path (default sandbox.base_path)")
	serve.Flags().StringVar(&workspace, "workspace", "", "data directory (default sandbox.workspace)")
	serve.Flags().BoolVar(&inMemory, "memory", false, "keep data in memory only")
	sb.AddCommand(serve)
	return sb
}

// --- helpers ---

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetString("config"))
}

func withClient(ctx context.Context, fn func(context.Context, *sdk.Client) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Log)
	c, ctx, err := app.ResolveClientAndSession(ctx, cfg, app.Overrides{
		BaseURL: viper.GetString("api-url"),
		Token:   viper.GetString("token"),
		Actor:   viper.GetString("actor"),
	}, logger)
	if err != nil {
		return err
	}
	return fn(ctx, c)
}

func uploadPath(ctx context.Context, upload func(context.Context, string, io.Reader) (sdk.UploadResult, error), path string) (sdk.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return sdk.UploadResult{}, err
	}
	defer f.Close()
	return upload(ctx, filepath.Base(path), f)
}

func printApplication(a sdk.Application, err error) error {
	if err != nil {
		return err
	}
	if viper.GetBool("json") {
		return printJSON(a)
	}
	v := view.NewCandidateView(&a)
	warnView(os.Stderr, &v)
	fmt.Printf("%s  %s  stage=%s status=%s hot=%t attention=%t\n", v.ID, v.Name, v.StageLabel, v.Status, v.IsHotApplicant, v.NeedsAttention)
	return nil
}

// candidateViews renders every application; flawed ones are reported on warn
// and still listed.
func candidateViews(apps []sdk.Application, warn io.Writer) []view.CandidateView {
	views := make([]view.CandidateView, 0, len(apps))
	for i := range apps {
		v := view.NewCandidateView(&apps[i])
		warnView(warn, &v)
		views = append(views, v)
	}
	return views
}

func warnView(w io.Writer, v *view.CandidateView) {
	if err := v.Err(); err != nil {
		fmt.Fprintln(w, "warning:", err)
	}
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	return tw
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
