package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iliyamo/prompt-library/internal/client"
	"github.com/iliyamo/prompt-library/internal/client/session"
	"github.com/iliyamo/prompt-library/internal/model"
)

// app is the state shared by every command: the API base URL and the
// session store.  The session is loaded once per invocation.
type app struct {
	baseURL     string
	sessionPath string

	store *session.Store
	sess  session.Session
}

func (a *app) load(cmd *cobra.Command, _ []string) error {
	if a.sessionPath == "" {
		p, err := session.DefaultPath()
		if err != nil {
			return err
		}
		a.sessionPath = p
	}
	a.store = session.NewStore(a.sessionPath)
	s, err := a.store.Load()
	if err != nil {
		return err
	}
	a.sess = s
	return nil
}

func (a *app) api() *client.Client { return client.New(a.baseURL, a.sess) }

// requireRole stops a command early when the cached session cannot use it.
func (a *app) requireRole(min model.Role) error {
	if !a.sess.Authenticated() {
		return errors.New("not logged in; run `promptctl login` first")
	}
	if !a.sess.Can(min) {
		return fmt.Errorf("this command needs the %s role (you are %s)", min, a.sess.Role)
	}
	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:               "promptctl",
		Short:             "Browse and manage the prompt library",
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
	}
	root.PersistentFlags().StringVar(&a.baseURL, "api", envOr("PROMPT_API_URL", "http://localhost:5001"), "API base URL")
	root.PersistentFlags().StringVar(&a.sessionPath, "session", os.Getenv("PROMPT_SESSION_FILE"), "session file path")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.categoriesCmd(),
		a.promptsCmd(),
		a.showCmd(),
		a.premiumCmd(),
		a.adminCmd(),
	)
	return root
}

func (a *app) registerCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.api().Register(cmd.Context(), name, email, password)
			if err != nil {
				return err
			}
			return a.signIn(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := a.api().Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			return a.signIn(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) signIn(w io.Writer, res client.AuthResult) error {
	a.sess = res.Session()
	if err := a.store.Save(a.sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(w, "signed in as %s <%s> (%s)\n", res.Name, res.Email, res.Role)
	return nil
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.store.Clear(); err != nil {
				return err
			}
			a.sess = session.Session{}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user as the server sees it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !a.sess.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "anonymous")
				return nil
			}
			p, err := a.api().Me(cmd.Context())
			if err != nil {
				return a.onAuthError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> role=%s id=%s\n", p.Name, p.Email, p.Role, p.ID)
			return nil
		},
	}
}

func (a *app) categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cats, err := a.api().Categories(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tCOUNT\tNEW")
			for _, c := range cats {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ID, c.Title, c.Count, yesNo(c.IsNew))
			}
			return tw.Flush()
		},
	}
}

func (a *app) promptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompts <categoryId>",
		Short: "List the prompts in a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := a.api().PromptsByCategory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tPREMIUM")
			for _, p := range items {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Title, yesNo(p.IsPremium))
			}
			return tw.Flush()
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <promptId>",
		Short: "Print a prompt's full content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.api().Prompt(cmd.Context(), args[0])
			if err != nil {
				return a.onAuthError(err)
			}
			printPrompt(cmd.OutOrStdout(), p)
			return nil
		},
	}
}

func (a *app) premiumCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "premium",
		Short: "List the premium library",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireRole(model.RolePremium); err != nil {
				return err
			}
			items, err := a.api().PremiumPrompts(cmd.Context())
			if err != nil {
				return a.onAuthError(err)
			}
			printPromptTable(cmd.OutOrStdout(), items)
			return nil
		},
	}
}

func (a *app) adminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Catalog management (admin only)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd, args); err != nil {
				return err
			}
			return a.requireRole(model.RoleAdmin)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every prompt, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.api().AllPrompts(cmd.Context())
			if err != nil {
				return a.onAuthError(err)
			}
			printPromptTable(cmd.OutOrStdout(), items)
			return nil
		},
	}

	var np client.NewPrompt
	create := &cobra.Command{
		Use:   "create",
		Short: "Add a prompt to the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.api().CreatePrompt(cmd.Context(), np)
			if err != nil {
				return a.onAuthError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", p.ID, p.Slug)
			return nil
		},
	}
	f := create.Flags()
	f.StringVar(&np.Title, "title", "", "prompt title")
	f.StringVar(&np.Description, "description", "", "short description")
	f.StringVar(&np.PromptText, "text", "", "full prompt text")
	f.StringVar(&np.Category, "category", "", "category id")
	f.BoolVar(&np.IsPremium, "premium", false, "mark as premium")
	f.StringVar(&np.KeySentence, "key-sentence", "", "optional key sentence")
	f.StringArrayVar(&np.WhatItDoes, "what", nil, "what it does (repeatable)")
	f.StringArrayVar(&np.Tips, "tip", nil, "usage tip (repeatable)")
	f.StringArrayVar(&np.HowToUse, "how", nil, "how to use step (repeatable)")

	admin.AddCommand(list, create)
	return admin
}

// staleSession holds the 401 messages that mean the saved token is no
// longer usable.
var staleSession = map[string]bool{
	"not authorized, token failed":   true,
	"not authorized, user not found": true,
}

// onAuthError drops a session the server no longer accepts.  Tokens are
// not refreshed; the user signs in again.
func (a *app) onAuthError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == 401 && a.sess.Authenticated() && staleSession[apiErr.Message] {
		_ = a.store.Clear()
		return fmt.Errorf("%w (session cleared; log in again)", err)
	}
	return err
}

func printPrompt(w io.Writer, p model.Prompt) {
	fmt.Fprintf(w, "%s\n%s\n\n", p.Title, strings.Repeat("=", len(p.Title)))
	if p.Category.Title != "" {
		fmt.Fprintf(w, "Category: %s\n", p.Category.Title)
	}
	if p.IsPremium {
		fmt.Fprintln(w, "Premium")
	}
	fmt.Fprintf(w, "\n%s\n\n%s\n", p.Description, p.PromptText)
	printList(w, "What it does", p.WhatItDoes)
	printList(w, "Tips", p.Tips)
	printList(w, "How to use", p.HowToUse)
}

func printList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", heading)
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}

func printPromptTable(w io.Writer, items []model.Prompt) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tPREMIUM")
	for _, p := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Title, p.Category.Title, yesNo(p.IsPremium))
	}
	_ = tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
