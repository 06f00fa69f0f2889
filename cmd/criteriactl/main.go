package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/mind-engage/mindengage-criteria/internal/config"
	"github.com/mind-engage/mindengage-criteria/internal/criteria"
	"github.com/mind-engage/mindengage-criteria/internal/db"
	"github.com/mind-engage/mindengage-criteria/internal/lib/slogcustom"
)

const usage = `usage: criteriactl <command> [flags]

commands:
  validate <file>                      check a criteria document, write nothing
  import   -a <assignment> <file>      replace an assignment's criteria
  export   -a <assignment> [-o file]   write an assignment's criteria as YAML
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	cfg := config.Load()
	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "validate":
		err = runValidate(rest, cfg, stdin, stdout)
	case "import":
		err = runImport(rest, cfg, stdin, stdout)
	case "export":
		err = runExport(rest, cfg, stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, color.RedString("error:"), err)
		return 1
	}
	return 0
}

type dbFlags struct {
	driver string
	dsn    string
}

func (d *dbFlags) register(fs *pflag.FlagSet, cfg config.Config) {
	fs.StringVar(&d.driver, "db-driver", cfg.DBDriver, "sqlite or postgres")
	fs.StringVar(&d.dsn, "db-dsn", cfg.DBDSN, "database DSN (driver default when empty)")
}

func (d *dbFlags) open(ctx context.Context, cfg config.Config) (*criteria.Service, func(), error) {
	dbh, err := db.Open(ctx, db.Driver(d.driver), d.dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", d.driver, err)
	}
	svc := criteria.NewService(criteria.NewSQLStore(dbh),
		criteria.WithPolicy(cfg.Criteria),
		criteria.WithLogger(slogcustom.New(cfg.LogFormat, cfg.LogLevel)),
	)
	return svc, func() { _ = dbh.Close() }, nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func runValidate(args []string, cfg config.Config, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("validate needs exactly one file (or -)")
	}
	data, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	plan, err := criteria.Validate(data, cfg.Criteria)
	if err != nil {
		return err
	}
	for _, c := range plan.Entries {
		fmt.Fprintf(stdout, "%s %d. %s (%s, max %g)\n", color.GreenString("ok"), c.Position, c.Name, c.Kind, c.MaxMark)
	}
	for _, e := range plan.Errors {
		fmt.Fprintf(stdout, "%s %s: %s\n", color.RedString("rejected"), e.Name, e.Detail)
	}
	fmt.Fprintf(stdout, "%d valid, %d rejected\n", len(plan.Entries), len(plan.Errors))
	if len(plan.Errors) > 0 {
		return fmt.Errorf("%d entries rejected", len(plan.Errors))
	}
	return nil
}

func runImport(args []string, cfg config.Config, stdin io.Reader, stdout io.Writer) error {
	fs := pflag.NewFlagSet("import", pflag.ContinueOnError)
	var dbf dbFlags
	dbf.register(fs, cfg)
	assignment := fs.Int64P("assignment", "a", 0, "assignment id")
	shortID := fs.String("create", "", "create the assignment with this short identifier when missing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *assignment <= 0 || fs.NArg() != 1 {
		return fmt.Errorf("import needs -a <assignment> and one file")
	}
	data, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	svc, closeDB, err := dbf.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if *shortID != "" {
		if err := ensureAssignment(ctx, svc, *assignment, *shortID); err != nil {
			return err
		}
	}
	res, err := svc.Import(ctx, *assignment, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s %d criteria imported into assignment %d\n", color.GreenString("ok"), res.Summary.Count, *assignment)
	if msg := res.ErrorMessage(); msg != "" {
		fmt.Fprintln(stdout, color.YellowString(msg))
	}
	return nil
}

// ensureAssignment creates the assignment only when the store reports it
// missing; any other lookup error is returned.
func ensureAssignment(ctx context.Context, svc *criteria.Service, id int64, shortID string) error {
	_, err := svc.Assignment(ctx, id)
	if !errors.Is(err, criteria.ErrAssignmentNotFound) {
		return err
	}
	_, err = svc.PutAssignment(ctx, criteria.Assignment{ID: id, ShortIdentifier: shortID})
	return err
}

func runExport(args []string, cfg config.Config, stdout io.Writer) error {
	fs := pflag.NewFlagSet("export", pflag.ContinueOnError)
	var dbf dbFlags
	dbf.register(fs, cfg)
	assignment := fs.Int64P("assignment", "a", 0, "assignment id")
	out := fs.StringP("output", "o", "", "write to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *assignment <= 0 {
		return fmt.Errorf("export needs -a <assignment>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	svc, closeDB, err := dbf.open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	doc, err := svc.Export(ctx, *assignment)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = stdout.Write(doc)
		return err
	}
	return os.WriteFile(*out, doc, 0o644)
}
