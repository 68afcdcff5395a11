package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/go-erp-client/client"
	"github.com/jrsteele09/go-erp-client/internal/config"
	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/metrics"
	"github.com/jrsteele09/go-erp-client/tenants"
	"github.com/jrsteele09/go-erp-client/token"
	"github.com/jrsteele09/go-erp-client/transport"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// openClient loads configuration and restores the persisted session.
func openClient(ctx context.Context, m metrics.Recorder) (*client.Client, config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}
	c, err := client.New(ctx, cfg,
		client.WithNavigator(&terminalNavigator{}),
		client.WithMetrics(m),
		client.WithLogger(log.Logger),
	)
	if err != nil {
		return nil, nil, err
	}
	c.Bootstrap(ctx)
	return c, cfg, nil
}

func withClient(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client) error) error {
	ctx := cmd.Context()
	c, _, err := openClient(ctx, metrics.Nop{})
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("closing client")
		}
	}()
	return fn(ctx, c)
}

func requireLogin(c *client.Client) error {
	if !c.IsLoggedIn() {
		return errors.Wrapf(errors.ErrNotLoggedIn, "run `erpclient login` first")
	}
	return nil
}

func loginCommand() *cobra.Command {
	var email, password, accessToken, refreshToken string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with credentials or an existing token pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if accessToken != "" || refreshToken != "" {
					if err := c.Login(ctx, accessToken, refreshToken); err != nil {
						return err
					}
				} else {
					if email == "" || password == "" {
						return errors.Wrapf(errors.ErrMissingCredentials, "--email and --password or --access-token and --refresh-token")
					}
					if err := c.Authenticate(ctx, email, password); err != nil {
						return err
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged in")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", os.Getenv("ERP_CLIENT_PASSWORD"), "Account password (default $ERP_CLIENT_PASSWORD)")
	cmd.Flags().StringVar(&accessToken, "access-token", "", "Access token to store")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "Refresh token to store")
	return cmd
}

func logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.Logout(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
				return nil
			})
		},
	}
}

type statusOutput struct {
	LoggedIn   bool               `json:"loggedIn"`
	HasRefresh bool               `json:"hasRefreshToken"`
	Subject    string             `json:"subject,omitempty"`
	Roles      []string           `json:"roles,omitempty"`
	ExpiresAt  string             `json:"expiresAt,omitempty"`
	Division   *tenants.Selection `json:"division,omitempty"`
}

func statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				creds := c.Credentials(ctx)
				out := statusOutput{LoggedIn: c.IsLoggedIn(), HasRefresh: creds.HasRefresh()}
				if claims, err := token.ParseClaims(creds.AccessToken); err == nil {
					out.Subject = claims.Subject
					out.Roles = claims.Roles
					if !claims.ExpiresAt.IsZero() {
						out.ExpiresAt = claims.ExpiresAt.Format(time.RFC3339)
					}
				}
				if actor, err := c.Actors.Get(ctx); err == nil {
					out.Roles = actor.RoleNames()
				}
				if sel, err := c.Selections.Get(ctx); err == nil {
					out.Division = sel
				}
				return printJSON(cmd, out)
			})
		},
	}
}

func divisionCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "division [id|all]",
		Short: "Show or select the working division",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if len(args) == 0 {
					sel, err := c.Selections.Get(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, sel)
				}

				id := tenants.DivisionID(args[0])
				sel := tenants.Selection{ID: id, Name: name, IsAllDivisions: id.IsAll()}
				if err := c.Selections.Set(ctx, sel); err != nil {
					return err
				}
				return printJSON(cmd, sel)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name of the division")
	return cmd
}

func getCommand() *cobra.Command {
	var query []string

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "GET a JSON resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs(query)
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := requireLogin(c); err != nil {
					return err
				}
				var out json.RawMessage
				if err := c.Transports.JSON.Get(ctx, args[0], url.Values(values), &out); err != nil {
					return describe(err)
				}
				return printJSON(cmd, out)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Query parameter key=value (repeatable)")
	return cmd
}

func postCommand() *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:   "post <path>",
		Short: "POST a JSON body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !json.Valid([]byte(data)) {
				return errors.Wrapf(errors.ErrInvalidConfig, "--data must be valid JSON")
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := requireLogin(c); err != nil {
					return err
				}
				var out json.RawMessage
				if err := c.Transports.JSON.Post(ctx, args[0], json.RawMessage(data), &out); err != nil {
					return describe(err)
				}
				return printJSON(cmd, out)
			})
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "{}", "JSON request body")
	return cmd
}

func uploadCommand() *cobra.Command {
	var fields, files []string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "POST a multipart form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fieldValues, err := parsePairs(fields)
			if err != nil {
				return err
			}
			form := &transport.Form{Fields: map[string]string{}}
			for k, vs := range fieldValues {
				form.Fields[k] = vs[len(vs)-1]
			}

			filePairs, err := parsePairs(files)
			if err != nil {
				return err
			}
			for field, paths := range filePairs {
				for _, p := range paths {
					f, err := os.Open(p)
					if err != nil {
						return err
					}
					defer f.Close()
					form.Files = append(form.Files, transport.File{Field: field, Filename: filepath.Base(p), Content: f})
				}
			}

			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := requireLogin(c); err != nil {
					return err
				}
				var out json.RawMessage
				if err := c.Transports.Form.Post(ctx, args[0], form, &out); err != nil {
					return describe(err)
				}
				return printJSON(cmd, out)
			})
		},
	}
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Form field key=value (repeatable)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "File part field=path (repeatable)")
	return cmd
}

func downloadCommand() *cobra.Command {
	var output string
	var query []string

	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Download a binary resource such as a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parsePairs(query)
			if err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := requireLogin(c); err != nil {
					return err
				}
				blob, err := c.Transports.Blob.Get(ctx, args[0], url.Values(values))
				if err != nil {
					return describe(err)
				}

				target := output
				if target == "" {
					target = blob.Filename
				}
				if target == "" {
					target = filepath.Base(args[0])
				}
				if target == "." || target == ".." || target == string(filepath.Separator) {
					return fmt.Errorf("cannot derive a file name from %q, use --output", args[0])
				}
				if err := os.WriteFile(target, blob.Data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes, %s)\n", target, len(blob.Data), blob.ContentType)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (defaults to the server supplied name)")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "Query parameter key=value (repeatable)")
	return cmd
}

func parsePairs(pairs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, errors.Wrapf(errors.ErrInvalidConfig, "expected key=value, got %q", p)
		}
		out[k] = append(out[k], v)
	}
	return out, nil
}

// describe adds a hint when the failure ended the session.
func describe(err error) error {
	var apiErr *transport.APIError
	if errors.As(err, &apiErr) && apiErr.SessionInvalidated {
		return fmt.Errorf("%w (session ended, run `erpclient login`)", err)
	}
	return err
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
