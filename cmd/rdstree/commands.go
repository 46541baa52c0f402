package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/johnwards/rdstree/internal/api/parse"
	"github.com/johnwards/rdstree/internal/api/trees"
	"github.com/johnwards/rdstree/internal/browse"
	"github.com/johnwards/rdstree/internal/database"
	"github.com/johnwards/rdstree/internal/designation"
	"github.com/johnwards/rdstree/internal/domain"
	"github.com/johnwards/rdstree/internal/forest"
	"github.com/johnwards/rdstree/internal/ingest"
	"github.com/johnwards/rdstree/internal/store"
	"github.com/johnwards/rdstree/internal/tree"
)

const watchDebounce = 200 * time.Millisecond

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseCmd() *cobra.Command {
	var expand, asJSON bool

	cmd := &cobra.Command{
		Use:   "parse CODE...",
		Short: "Parse reference designations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, err := describeCodes(args, expand)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			return printCodes(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().BoolVar(&expand, "expand", false, "Print every entity and container above each code")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func describeCodes(codes []string, expand bool) ([]*parse.Result, error) {
	var results []*parse.Result
	for _, raw := range codes {
		if !expand {
			results = append(results, parse.Describe(raw))
			continue
		}
		chain, err := designation.Expand(raw)
		if err != nil {
			return nil, err
		}
		for _, c := range chain {
			results = append(results, parse.DescribeCode(c.Raw, c))
		}
	}
	return results, nil
}

func printCodes(w io.Writer, results []*parse.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tASPECT\tLEVEL\tPARENT")
	for _, r := range results {
		if !r.Valid {
			fmt.Fprintf(tw, "%s\t-\t-\t%s\n", r.Input, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.Input, r.AspectLabel, r.Level, r.DerivedParent)
	}
	return tw.Flush()
}

// treeOptions holds the flags of the tree command.
type treeOptions struct {
	asJSON bool
	flat   bool
	aspect string
	depth  int
	watch  bool
}

func treeCmd(opts *globalOptions) *cobra.Command {
	to := treeOptions{}

	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Build and print the forest of a CSV or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.load(); err != nil {
				return err
			}
			path := args[0]
			out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

			if err := renderFile(out, errOut, path, to); err != nil {
				return err
			}
			if !to.watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			slog.Info("watching for changes", "path", path)
			return ingest.Watch(ctx, path, watchDebounce, func() {
				fmt.Fprintln(out, "---")
				if err := renderFile(out, errOut, path, to); err != nil {
					slog.Error("render tree", "path", path, "error", err)
				}
			})
		},
	}

	cmd.Flags().BoolVar(&to.asJSON, "json", false, "Print JSON")
	cmd.Flags().BoolVar(&to.flat, "flat", false, "Print JSON as a flat node list with parent codes")
	cmd.Flags().StringVar(&to.aspect, "aspect", "", "Only show one aspect (function, location, power or a prefix symbol)")
	cmd.Flags().IntVar(&to.depth, "depth", -1, "Maximum depth to show, -1 for all")
	cmd.Flags().BoolVar(&to.watch, "watch", false, "Rebuild whenever the file changes")
	return cmd
}

// readObjects reads a CSV or JSON file, reporting unreadable rows on errOut.
func readObjects(errOut io.Writer, path string) ([]domain.Object, error) {
	objs, rowErrs, err := ingest.ReadFile(path)
	if err != nil {
		return nil, err
	}
	for _, re := range rowErrs {
		fmt.Fprintf(errOut, "warning: %s\n", re.Error())
	}
	if objs == nil {
		objs = []domain.Object{}
	}
	return objs, nil
}

func renderFile(out, errOut io.Writer, path string, to treeOptions) error {
	var aspect designation.Aspect
	if to.aspect != "" {
		a, err := designation.ParseAspect(to.aspect)
		if err != nil {
			return err
		}
		aspect = a
	}

	objs, err := readObjects(errOut, path)
	if err != nil {
		return err
	}
	res, err := tree.Build(objs)
	if err != nil {
		return err
	}
	if to.flat {
		nodes := tree.Flatten(tree.Filter(res.Roots, aspect, to.depth))
		return writeJSON(out, trees.FlatForestResponse{
			Nodes:        nodes,
			Duplicates:   res.Duplicates,
			Orphans:      res.Orphans,
			Unrecognized: res.Unrecognized,
			Total:        len(nodes),
		})
	}
	if to.asJSON {
		roots, truncated := tree.Nested(res.Roots, aspect, to.depth)
		resp := trees.NewForestResponse(res, roots)
		resp.Truncated = truncated
		return writeJSON(out, resp)
	}
	roots := tree.Filter(res.Roots, aspect, to.depth)
	if err := tree.Print(out, roots); err != nil {
		return err
	}
	printDiagnostics(out, res)
	return nil
}

func printDiagnostics(w io.Writer, res *tree.Result) {
	if len(res.Duplicates)+len(res.Orphans)+len(res.Unrecognized) == 0 {
		return
	}
	fmt.Fprintln(w)
	for _, d := range res.Duplicates {
		fmt.Fprintf(w, "duplicate %s: ids %v, kept %d\n", d.Code, d.ObjectIDs, d.SurvivingID)
	}
	for _, o := range res.Orphans {
		line := fmt.Sprintf("orphan %s: %s, declared parent %s", o.Object.Code, o.Reason, o.Object.Parent())
		if o.SuggestedParent != "" {
			line += ", suggested " + o.SuggestedParent
		}
		fmt.Fprintln(w, line)
	}
	for _, u := range res.Unrecognized {
		fmt.Fprintf(w, "unrecognized %s\n", u)
	}
}

func importCmd(opts *globalOptions) *cobra.Command {
	var facility string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Load a CSV or JSON file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := database.OpenMigrated(ctx, cfg.DBPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			s := store.New(db)

			src := ingest.FileSource(args[0])
			src.Facility = facility
			imp, err := ingest.Load(ctx, s, src)
			if err != nil {
				return err
			}

			sum := imp.Summary
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "import %s into %s: %d rows, %d created, %d failed\n",
				imp.ID, imp.Facility, sum.Rows, sum.Created, sum.Failed)
			if sum.Failed == 0 {
				return nil
			}
			errs, err := s.Imports.GetErrors(ctx, imp.ID)
			if err != nil {
				return err
			}
			for _, e := range errs {
				fmt.Fprintf(out, "  line %d: %s %s\n", e.Line, e.Kind, e.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&facility, "facility", domain.DefaultFacility, "Facility to load the objects into")
	return cmd
}

func browseCmd(opts *globalOptions) *cobra.Command {
	var facility string

	cmd := &cobra.Command{
		Use:   "browse [FILE]",
		Short: "Explore a forest interactively",
		Long: `Explore the forest built from FILE, or from one facility of the configured
database when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			var res *tree.Result
			if len(args) == 1 {
				objs, err := readObjects(cmd.ErrOrStderr(), args[0])
				if err != nil {
					return err
				}
				if res, err = tree.Build(objs); err != nil {
					return err
				}
			} else {
				db, err := database.OpenMigrated(cmd.Context(), cfg.DBPath)
				if err != nil {
					return err
				}
				defer func() { _ = db.Close() }()
				snap, err := forest.New(store.NewSQLiteObjectStore(db)).Current(cmd.Context(), facility)
				if err != nil {
					return err
				}
				res = snap.Result
			}

			sh := browse.New(res, cmd.OutOrStdout())
			rl, err := readline.NewEx(&readline.Config{
				Prompt:          sh.Prompt(),
				HistoryFile:     historyPath(),
				AutoComplete:    sh.Completer(),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("initialize readline: %w", err)
			}
			defer func() { _ = rl.Close() }()

			fmt.Fprintf(cmd.OutOrStdout(), "%d nodes, %d orphans, %d duplicate codes. Type help for commands.\n",
				res.Count(), len(res.Orphans), len(res.Duplicates))
			return sh.Run(rl)
		},
	}

	cmd.Flags().StringVar(&facility, "facility", domain.DefaultFacility, "Facility to browse when reading the database")
	return cmd
}

func historyPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rdstree_history")
}
