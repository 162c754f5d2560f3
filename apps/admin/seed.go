package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// seedFile lists rows per table. Rows use the same field names as the API forms.
type seedFile map[string][]map[string]interface{}

type validatable interface {
	Validate(validate *validator.Validate) error
}

func (cli *commandLine) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed FILE.yaml",
		Short: "Insert the rows listed in a YAML file",
		Long: `Insert the rows listed in a YAML file.

Top-level keys are articles, courses, events, opportunities, learning, mentors and vouchers.
Rows with an id update the existing row.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading seed file")
			}
			counts, err := cli.seed(cmd.Context(), data)
			for _, sec := range seedSections {
				if n, ok := counts[sec]; ok {
					cmd.Printf("%s: %d\n", sec, n)
				}
			}
			return err
		},
	}
}

var seedSections = []string{"articles", "courses", "events", "opportunities", "learning", "mentors", "vouchers"}

// seed saves every row of data and returns the number of rows saved per section.
func (cli *commandLine) seed(ctx context.Context, data []byte) (map[string]int, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "parsing seed file")
	}
	for sec := range file {
		if !isSeedSection(sec) {
			return nil, errors.Errorf("unknown section %q", sec)
		}
	}

	svcs := cli.svcs
	counts := make(map[string]int)
	for _, sec := range seedSections {
		rows, ok := file[sec]
		if !ok {
			continue
		}
		var (
			n   int
			err error
		)
		switch sec {
		case "articles":
			n, err = seedRows(ctx, cli.validate, rows, svcs.Article.Save)
		case "courses":
			n, err = seedRows(ctx, cli.validate, rows, svcs.Course.Save)
		case "events":
			n, err = seedRows(ctx, cli.validate, rows, svcs.Event.Save)
		case "opportunities":
			n, err = seedRows(ctx, cli.validate, rows, svcs.Opportunity.Save)
		case "learning":
			n, err = seedRows(ctx, cli.validate, rows, svcs.Learning.Save)
		case "mentors":
			n, err = seedRows(ctx, cli.validate, rows, svcs.Mentor.Save)
		case "vouchers":
			n, err = seedRows(ctx, cli.validate, rows, svcs.Voucher.Save)
		}
		counts[sec] = n
		if err != nil {
			return counts, errors.Wrap(err, sec)
		}
	}

	if counts["opportunities"] > 0 || counts["learning"] > 0 {
		if err := svcs.Feed.Invalidate(ctx); err != nil {
			cli.logger.Warn("invalidating feed cache: " + err.Error())
		}
	}
	return counts, nil
}

func isSeedSection(name string) bool {
	for _, sec := range seedSections {
		if sec == name {
			return true
		}
	}
	return false
}

// seedRows converts each YAML row to form F through its JSON field names, validates then saves it.
func seedRows[F any, PF interface {
	*F
	validatable
}, T any](
	ctx context.Context,
	validate *validator.Validate,
	rows []map[string]interface{},
	save func(context.Context, F) (T, bool, error),
) (int, error) {
	for i, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return i, errors.Wrapf(err, "row %d", i)
		}
		var form F
		if err = json.Unmarshal(raw, &form); err != nil {
			return i, errors.Wrapf(err, "row %d", i)
		}
		if err = PF(&form).Validate(validate); err != nil {
			return i, errors.Wrapf(err, "row %d", i)
		}
		if _, _, err = save(ctx, form); err != nil {
			return i, errors.Wrapf(err, "row %d", i)
		}
	}
	return len(rows), nil
}
