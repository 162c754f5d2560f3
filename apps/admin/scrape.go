package main

import (
	"github.com/spf13/cobra"

	"github.com/trezcool/elimu/core/scrape"
)

func (cli *commandLine) scrapeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scrape [SOURCE...]",
		Short: "Trigger the remote scraper and store its items for review",
		RunE: func(cmd *cobra.Command, args []string) error {
			form := scrape.TriggerForm{Sources: args}
			if err := form.Validate(cli.validate); err != nil {
				return err
			}
			res, err := cli.svcs.Scrape.Trigger(cmd.Context(), form)
			if err != nil {
				return err
			}
			cmd.Printf("%d item(s) ingested\n", res.Ingested)
			return nil
		},
	}
}
